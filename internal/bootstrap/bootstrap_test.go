package bootstrap_test

import (
	"context"
	"testing"

	"github.com/samirrijal/curbside/internal/adapters/overpass"
	"github.com/samirrijal/curbside/internal/adapters/roadindex"
	"github.com/samirrijal/curbside/internal/bootstrap"
	"github.com/samirrijal/curbside/internal/core/domain"
	"github.com/samirrijal/curbside/internal/pkg/config"
	"github.com/samirrijal/curbside/internal/pkg/geospatial"
)

func testConfig(kind string) *config.Config {
	return &config.Config{
		Sweep: config.SweepConfig{
			FetchRadiusMiles: 0.5,
			RingRadiiMiles:   []float64{0.1, 0.2},
			Sampler:          config.SamplerConfig{Kind: "cap", MaxPerRing: 3, Seed: 7},
		},
		Provider: config.ProviderConfig{
			Kind:            kind,
			CacheTTLSeconds: 60,
			SnapshotPath:    "../adapters/roadindex/testdata/mission.json",
		},
		Overpass: config.OverpassConfig{URL: "http://127.0.0.1:1/api/interpreter", TimeoutSeconds: 1},
	}
}

func TestOpen_Overpass(t *testing.T) {
	b, err := bootstrap.Open(context.Background(), testConfig("overpass"), bootstrap.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	if _, ok := b.Provider.(*overpass.Client); !ok {
		t.Fatalf("expected overpass client, got %T", b.Provider)
	}
	if b.Cache != nil || b.Publisher != nil || b.DB != nil {
		t.Error("expected no optional backends")
	}
}

func TestOpen_RoadIndex(t *testing.T) {
	cfg := testConfig("roadindex")
	b, err := bootstrap.Open(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	ix, ok := b.Provider.(*roadindex.Index)
	if !ok {
		t.Fatalf("expected road index, got %T", b.Provider)
	}
	if ix.Len() == 0 {
		t.Error("expected roads in the index")
	}

	svc, err := b.CrossingService(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if _, err := svc.FindCrossings(context.Background(), domain.GeoPoint{Lat: 37.775, Lon: -122.419}); err != nil {
		t.Fatalf("find crossings: %v", err)
	}
}

func TestOpen_UnknownProvider(t *testing.T) {
	if _, err := bootstrap.Open(context.Background(), testConfig("carrier-pigeon"), bootstrap.Options{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOpen_MissingSnapshot(t *testing.T) {
	cfg := testConfig("roadindex")
	cfg.Provider.SnapshotPath = "does/not/exist.json"
	if _, err := bootstrap.Open(context.Background(), cfg, bootstrap.Options{}); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestSweepOptionsAndSampler(t *testing.T) {
	cfg := testConfig("overpass")

	opts := bootstrap.SweepOptions(cfg)
	if opts.FetchRadiusMiles != 0.5 || len(opts.RingRadiiMiles) != 2 || opts.CacheTTLSeconds != 60 {
		t.Errorf("unexpected options %+v", opts)
	}

	s, err := bootstrap.Sampler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := s.(geospatial.CapPerRing); !ok || c.Max != 3 || c.Seed != 7 {
		t.Errorf("unexpected sampler %#v", s)
	}

	cfg.Sweep.Sampler.Kind = "bogus"
	if _, err := bootstrap.Sampler(cfg); err == nil {
		t.Error("expected error for unknown sampler")
	}
}
