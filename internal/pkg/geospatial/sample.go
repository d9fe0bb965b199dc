package geospatial

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// Sampler bounds the number of crossings kept per ring. Implementations must
// be deterministic for a given input.
type Sampler interface {
	Sample(center domain.GeoPoint, rings []domain.RingCrossings) []domain.RingCrossings
}

// Sampler kinds accepted by NewSampler.
const (
	SamplerNone    = "none"
	SamplerCap     = "cap"
	SamplerAngular = "angular"
)

// NewSampler builds a Sampler from its configured kind.
func NewSampler(kind string, maxPerRing int, seed int64, sectors, perSector int) (Sampler, error) {
	switch kind {
	case "", SamplerNone:
		return NoCap{}, nil
	case SamplerCap:
		if maxPerRing <= 0 {
			return nil, fmt.Errorf("cap sampler: max per ring must be positive, got %d", maxPerRing)
		}
		return CapPerRing{Max: maxPerRing, Seed: seed}, nil
	case SamplerAngular:
		if sectors <= 0 || perSector <= 0 {
			return nil, fmt.Errorf("angular sampler: sectors and per-sector must be positive, got %d and %d", sectors, perSector)
		}
		return AngularCap{Sectors: sectors, PerSector: perSector}, nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", kind)
	}
}

// NoCap keeps every point.
type NoCap struct{}

func (NoCap) Sample(_ domain.GeoPoint, rings []domain.RingCrossings) []domain.RingCrossings {
	return rings
}

// CapPerRing keeps at most Max randomly chosen points per ring, preserving
// their original relative order. The choice depends only on Seed and the input.
type CapPerRing struct {
	Max  int
	Seed int64
}

func (c CapPerRing) Sample(_ domain.GeoPoint, rings []domain.RingCrossings) []domain.RingCrossings {
	rng := rand.New(rand.NewSource(c.Seed))

	out := make([]domain.RingCrossings, len(rings))
	for i, ring := range rings {
		out[i] = domain.RingCrossings{RadiusMiles: ring.RadiusMiles, Points: ring.Points}
		if len(ring.Points) <= c.Max {
			continue
		}

		keep := rng.Perm(len(ring.Points))[:c.Max]
		sort.Ints(keep)

		points := make([]domain.IntersectionPoint, len(keep))
		for j, idx := range keep {
			points[j] = ring.Points[idx]
		}
		out[i].Points = points
	}
	return out
}

// AngularCap splits each ring into Sectors equal angular sectors around the
// center and keeps the first PerSector points of each, in sector order.
type AngularCap struct {
	Sectors   int
	PerSector int
}

func (a AngularCap) Sample(center domain.GeoPoint, rings []domain.RingCrossings) []domain.RingCrossings {
	out := make([]domain.RingCrossings, len(rings))
	for i, ring := range rings {
		buckets := make([][]domain.IntersectionPoint, a.Sectors)
		for _, p := range ring.Points {
			angle := math.Atan2(p.Lat-center.Lat, p.Lon-center.Lon)
			if angle < 0 {
				angle += 2 * math.Pi
			}
			sector := int(angle/(2*math.Pi/float64(a.Sectors))) % a.Sectors
			if len(buckets[sector]) >= a.PerSector {
				continue
			}
			buckets[sector] = append(buckets[sector], p)
		}

		points := []domain.IntersectionPoint{}
		for _, b := range buckets {
			points = append(points, b...)
		}
		out[i] = domain.RingCrossings{RadiusMiles: ring.RadiusMiles, Points: points}
	}
	return out
}
