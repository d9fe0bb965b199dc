// Package roadindex serves road geometry from an in-memory R-tree, loaded
// from an Overpass JSON snapshot.
package roadindex

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/samirrijal/curbside/internal/adapters/overpass"
	"github.com/samirrijal/curbside/internal/core/domain"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50

	// pad widens every road rectangle so axis-aligned roads have non-zero
	// extent; rtreego treats touching rectangles as disjoint.
	pad = 1e-9
)

// indexedRoad wraps a road to implement rtreego.Spatial. seq keeps results
// in insertion order.
type indexedRoad struct {
	road   domain.Road
	seq    int
	bounds rtreego.Rect
}

func (r *indexedRoad) Bounds() rtreego.Rect {
	return r.bounds
}

// Index implements ports.RoadGeometryProvider over an R-tree keyed by each
// road's bounding rectangle in (lon, lat) space.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	next int
}

// New bulk-loads roads into a new index. Roads without vertices or with
// non-finite vertices are skipped.
func New(roads []domain.Road) *Index {
	objs := make([]rtreego.Spatial, 0, len(roads))
	seq := 0
	for _, road := range roads {
		ir, ok := wrap(road, seq)
		if !ok {
			slog.Warn("roadindex: skipping road without usable geometry", "road_id", road.ID)
			continue
		}
		objs = append(objs, ir)
		seq++
	}

	return &Index{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren, objs...),
		next: seq,
	}
}

// Load reads an Overpass JSON snapshot (as produced by an "out geom" query)
// from path and indexes it.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	roads, err := overpass.DecodeRoads(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return New(roads), nil
}

// Name returns the provider label.
func (ix *Index) Name() string { return "roadindex" }

// Len returns the number of indexed roads.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Size()
}

// Add inserts roads into the index. It reports how many were accepted.
func (ix *Index) Add(roads ...domain.Road) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	added := 0
	for _, road := range roads {
		ir, ok := wrap(road, ix.next)
		if !ok {
			continue
		}
		ix.tree.Insert(ir)
		ix.next++
		added++
	}
	return added
}

// FetchRoads returns every road whose bounding rectangle intersects box, in
// insertion order.
func (ix *Index) FetchRoads(ctx context.Context, box domain.BoundingBox) ([]domain.Road, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	query, err := rtreego.NewRectFromPoints(
		rtreego.Point{box.Left, box.Bottom},
		rtreego.Point{box.Right, box.Top},
	)
	if err != nil {
		return nil, fmt.Errorf("roadindex query rect: %w", err)
	}

	ix.mu.RLock()
	hits := ix.tree.SearchIntersect(query)
	ix.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].(*indexedRoad).seq < hits[j].(*indexedRoad).seq
	})

	roads := make([]domain.Road, len(hits))
	for i, h := range hits {
		roads[i] = h.(*indexedRoad).road
	}
	return roads, nil
}

func wrap(road domain.Road, seq int) (*indexedRoad, bool) {
	if len(road.Geometry) == 0 || !road.Geometry.Finite() {
		return nil, false
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, v := range road.Geometry {
		minLon = math.Min(minLon, v.Lon)
		maxLon = math.Max(maxLon, v.Lon)
		minLat = math.Min(minLat, v.Lat)
		maxLat = math.Max(maxLat, v.Lat)
	}

	bounds, err := rtreego.NewRectFromPoints(
		rtreego.Point{minLon - pad, minLat - pad},
		rtreego.Point{maxLon + pad, maxLat + pad},
	)
	if err != nil {
		return nil, false
	}
	return &indexedRoad{road: road, seq: seq, bounds: bounds}, true
}
