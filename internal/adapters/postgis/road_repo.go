package postgis

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// RoadRepo implements ports.RoadGeometryProvider over a PostGIS roads table.
type RoadRepo struct {
	db      *DB
	classes []string
}

// NewRoadRepo creates a RoadRepo returning only the given highway classes.
func NewRoadRepo(db *DB, classes []string) *RoadRepo {
	return &RoadRepo{db: db, classes: classes}
}

// Name returns the provider label.
func (r *RoadRepo) Name() string { return "postgis" }

// FetchRoads returns the roads whose geometry's bounding box overlaps box,
// ordered by OSM id.
func (r *RoadRepo) FetchRoads(ctx context.Context, box domain.BoundingBox) ([]domain.Road, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT r.osm_id, r.highway, COALESCE(r.name, ''),
		       ARRAY(SELECT ST_X(d.geom) FROM ST_DumpPoints(r.geom) AS d ORDER BY d.path),
		       ARRAY(SELECT ST_Y(d.geom) FROM ST_DumpPoints(r.geom) AS d ORDER BY d.path)
		FROM roads r
		WHERE r.geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		  AND r.highway = ANY($5)
		ORDER BY r.osm_id
	`, box.Left, box.Bottom, box.Right, box.Top, r.classes)
	if err != nil {
		return nil, fmt.Errorf("%w: query roads: %v", domain.ErrProviderUnavailable, err)
	}
	defer rows.Close()

	var roads []domain.Road
	for rows.Next() {
		var (
			road     domain.Road
			lon, lat []float64
		)
		if err := rows.Scan(&road.ID, &road.Highway, &road.Name, &lon, &lat); err != nil {
			return nil, fmt.Errorf("%w: scan road: %v", domain.ErrProviderMalformed, err)
		}
		if len(lon) != len(lat) {
			return nil, fmt.Errorf("%w: road %d has %d longitudes and %d latitudes",
				domain.ErrProviderMalformed, road.ID, len(lon), len(lat))
		}
		road.Geometry = make(domain.Polyline, len(lon))
		for i := range lon {
			road.Geometry[i] = domain.GeoPoint{Lat: lat[i], Lon: lon[i]}
		}
		roads = append(roads, road)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read roads: %v", domain.ErrProviderUnavailable, err)
	}
	return roads, nil
}

// UpsertBatch stores roads keyed by OSM id using pgx.Batch. Roads with fewer
// than two vertices are skipped. It returns the number written.
func (r *RoadRepo) UpsertBatch(ctx context.Context, roads []domain.Road) (int, error) {
	batch := &pgx.Batch{}
	for _, road := range roads {
		if road.Geometry.Segments() == 0 || !road.Geometry.Finite() {
			continue
		}
		lon := make([]float64, len(road.Geometry))
		lat := make([]float64, len(road.Geometry))
		for i, v := range road.Geometry {
			lon[i], lat[i] = v.Lon, v.Lat
		}
		batch.Queue(`
			INSERT INTO roads (osm_id, highway, name, geom)
			VALUES ($1, $2, NULLIF($3, ''), ST_SetSRID(ST_MakeLine(ARRAY(
				SELECT ST_MakePoint(t.x, t.y)
				FROM unnest($4::float8[], $5::float8[]) WITH ORDINALITY AS t(x, y, i)
				ORDER BY t.i
			)), 4326))
			ON CONFLICT (osm_id) DO UPDATE
			SET highway = EXCLUDED.highway, name = EXCLUDED.name,
			    geom = EXCLUDED.geom, updated_at = now()
		`, road.ID, road.Highway, road.Name, lon, lat)
	}

	n := batch.Len()
	if n == 0 {
		return 0, nil
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("batch exec: %w", err)
		}
	}
	return n, nil
}

// RoadStats summarises the roads table.
type RoadStats struct {
	Roads       int            `json:"roads"`
	ByHighway   map[string]int `json:"by_highway"`
	LastUpdated string         `json:"last_updated,omitempty"`
}

// Stats returns row counts per highway class and the latest update time.
func (r *RoadRepo) Stats(ctx context.Context) (RoadStats, error) {
	stats := RoadStats{ByHighway: map[string]int{}}
	rows, err := r.db.Pool.Query(ctx, `SELECT highway, count(*) FROM roads GROUP BY highway`)
	if err != nil {
		return stats, fmt.Errorf("count roads: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			class string
			n     int
		)
		if err := rows.Scan(&class, &n); err != nil {
			return stats, fmt.Errorf("scan road count: %w", err)
		}
		stats.ByHighway[class] = n
		stats.Roads += n
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("read road counts: %w", err)
	}

	err = r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(max(updated_at)::text, '') FROM roads`).Scan(&stats.LastUpdated)
	if err != nil {
		return stats, fmt.Errorf("last update: %w", err)
	}
	return stats, nil
}
