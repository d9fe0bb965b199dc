package config_test

import (
	"math"
	"strings"
	"testing"

	"github.com/samirrijal/curbside/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("curbside-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Sweep.FetchRadiusMiles != 1.0 {
		t.Errorf("expected fetch radius 1.0, got %v", cfg.Sweep.FetchRadiusMiles)
	}
	want := []float64{0.1, 0.25, 0.5, 0.75}
	if len(cfg.Sweep.RingRadiiMiles) != len(want) {
		t.Fatalf("expected %d radii, got %v", len(want), cfg.Sweep.RingRadiiMiles)
	}
	for i := range want {
		if cfg.Sweep.RingRadiiMiles[i] != want[i] {
			t.Errorf("radius %d: expected %v, got %v", i, want[i], cfg.Sweep.RingRadiiMiles[i])
		}
	}
	if cfg.Sweep.Sampler.Kind != "none" {
		t.Errorf("expected sampler none, got %q", cfg.Sweep.Sampler.Kind)
	}
	if cfg.Provider.Kind != "overpass" {
		t.Errorf("expected overpass provider, got %q", cfg.Provider.Kind)
	}
	if len(cfg.Overpass.HighwayClasses) != 6 {
		t.Errorf("expected 6 highway classes, got %v", cfg.Overpass.HighwayClasses)
	}
	if cfg.Telemetry.ServiceName != "curbside-test" {
		t.Errorf("expected service name curbside-test, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CURBSIDE_SWEEP_FETCH_RADIUS_MILES", "2.5")
	t.Setenv("CURBSIDE_PROVIDER_KIND", "roadindex")

	cfg, err := config.Load("curbside-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sweep.FetchRadiusMiles != 2.5 {
		t.Errorf("expected fetch radius 2.5, got %v", cfg.Sweep.FetchRadiusMiles)
	}
	if cfg.Provider.Kind != "roadindex" {
		t.Errorf("expected roadindex, got %q", cfg.Provider.Kind)
	}
}

func validConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Sweep: config.SweepConfig{
			FetchRadiusMiles: 1,
			RingRadiiMiles:   []float64{0.1, 0.25},
			Sampler:          config.SamplerConfig{Kind: "none"},
		},
		Provider: config.ProviderConfig{Kind: "overpass", CacheTTLSeconds: 60},
		Overpass: config.OverpassConfig{URL: "http://overpass", TimeoutSeconds: 25, HighwayClasses: []string{"primary"}},
		NATS:     config.NATSConfig{URL: "nats://localhost:4222"},
		Valkey:   config.ValkeyConfig{Addr: "localhost:6379"},
		Temporal: config.TemporalConfig{TaskQueue: "q"},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Sweep.FetchRadiusMiles = 0
	cfg.Sweep.RingRadiiMiles = []float64{0.1, -1, math.NaN()}
	cfg.Sweep.Sampler.Kind = "random"
	cfg.Provider.Kind = "shapefile"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"sweep.fetch_radius_miles",
		"sweep.ring_radii_miles[1]",
		"sweep.ring_radii_miles[2]",
		"sweep.sampler.kind",
		"provider.kind",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestValidate_EmptyRadii(t *testing.T) {
	cfg := validConfig()
	cfg.Sweep.RingRadiiMiles = nil
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "must not be empty") {
		t.Errorf("expected empty radii error, got %v", err)
	}
}

func TestValidate_CapSamplerNeedsMax(t *testing.T) {
	cfg := validConfig()
	cfg.Sweep.Sampler = config.SamplerConfig{Kind: "cap"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for cap sampler without max_per_ring")
	}
}
