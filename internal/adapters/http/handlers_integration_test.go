//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/samirrijal/curbside/internal/adapters/http"
	"github.com/samirrijal/curbside/internal/adapters/postgis"
	"github.com/samirrijal/curbside/internal/core/domain"
	"github.com/samirrijal/curbside/internal/core/usecases"
	"github.com/samirrijal/curbside/internal/pkg/config"
)

// setupTestDB connects to the test database and applies the roads schema.
func setupTestDB(t *testing.T) *postgis.DB {
	cfg, err := config.Load("curbside-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgis.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	schema, err := os.ReadFile("../../../migrations/001_roads.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return db
}

// seedCross inserts two roads crossing at center: one east-west, one
// north-south, each two miles long.
func seedCross(t *testing.T, repo *postgis.RoadRepo, center domain.GeoPoint, base int64) {
	t.Helper()
	dLon, dLat := 0.0183, 0.01449 // ~1 mile at 37.77N
	roads := []domain.Road{
		{ID: base + 1, Highway: "primary", Name: "East West", Geometry: domain.Polyline{
			{Lat: center.Lat, Lon: center.Lon - dLon}, {Lat: center.Lat, Lon: center.Lon + dLon},
		}},
		{ID: base + 2, Highway: "secondary", Name: "North South", Geometry: domain.Polyline{
			{Lat: center.Lat - dLat, Lon: center.Lon}, {Lat: center.Lat + dLat, Lon: center.Lon},
		}},
	}
	if _, err := repo.UpsertBatch(context.Background(), roads); err != nil {
		t.Fatalf("seed roads: %v", err)
	}
}

// TestCrossings_Integration_PostGIS runs a crossing query end to end against
// the PostGIS provider.
func TestCrossings_Integration_PostGIS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	// Far from any real data so only the seeded roads are found.
	center := domain.GeoPoint{Lat: 37.7749, Lon: -140.0}
	repo := postgis.NewRoadRepo(db, []string{"primary", "secondary"})
	base := time.Now().UnixNano() % 1_000_000_000
	seedCross(t, repo, center, base)
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM roads WHERE osm_id = ANY($1)`, []int64{base + 1, base + 2})
	})

	app := setupApp(&http.Dependencies{
		Crossings: usecases.NewCrossingService(repo, nil, nil, nil, usecases.DefaultSweepOptions()),
		Provider:  repo.Name(),
		DB:        db,
	})

	resp, err := app.Test(httptest.NewRequest("GET", crossingsURL("/v1/crossings", center), nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.PointsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	// 2 roads x 4 rings x 2 crossings
	if result.PointCount != 16 {
		t.Errorf("expected 16 points, got %d", result.PointCount)
	}
}

// TestReady_Integration_WithDB checks the readiness probe pings the pool.
func TestReady_Integration_WithDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	deps := makeDeps(nil)
	deps.DB = db
	app := setupApp(deps)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %q", result.Checks["database"])
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/roads/stats", nil), -1)
	if resp.StatusCode != 200 {
		t.Errorf("expected road stats 200, got %d", resp.StatusCode)
	}
}
