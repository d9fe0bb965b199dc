// Package bootstrap assembles the crossing service from configuration for
// the binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	natsadapter "github.com/samirrijal/curbside/internal/adapters/nats"
	"github.com/samirrijal/curbside/internal/adapters/overpass"
	"github.com/samirrijal/curbside/internal/adapters/postgis"
	"github.com/samirrijal/curbside/internal/adapters/roadindex"
	"github.com/samirrijal/curbside/internal/adapters/valkey"
	"github.com/samirrijal/curbside/internal/core/ports"
	"github.com/samirrijal/curbside/internal/core/usecases"
	"github.com/samirrijal/curbside/internal/pkg/config"
	"github.com/samirrijal/curbside/internal/pkg/geospatial"
)

// Options selects the optional backends Open connects to.
type Options struct {
	Cache  bool
	Events bool
}

// Backends holds the provider and the optional backends behind a
// CrossingService. Cache, Publisher and DB are nil when not in use.
type Backends struct {
	Provider  ports.RoadGeometryProvider
	DB        *postgis.DB
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher

	closers []func()
}

// Open connects the configured provider and, when requested, the cache and
// event publisher. Cache and publisher failures are logged and skipped;
// provider failures are fatal.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Backends, error) {
	b := &Backends{}

	provider, err := b.openProvider(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Provider = provider

	if opts.Cache {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, road cache disabled", "error", err)
		} else {
			b.Cache = cache
			b.closers = append(b.closers, cache.Close)
		}
	}

	if opts.Events {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
		} else {
			b.Publisher = pub
			b.closers = append(b.closers, pub.Close)
		}
	}

	return b, nil
}

func (b *Backends) openProvider(ctx context.Context, cfg *config.Config) (ports.RoadGeometryProvider, error) {
	switch cfg.Provider.Kind {
	case "overpass":
		timeout := time.Duration(cfg.Overpass.TimeoutSeconds) * time.Second
		return overpass.New(cfg.Overpass.URL, timeout, cfg.Overpass.HighwayClasses), nil
	case "postgis":
		db, err := postgis.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		b.DB = db
		b.closers = append(b.closers, db.Close)
		return postgis.NewRoadRepo(db, cfg.Overpass.HighwayClasses), nil
	case "roadindex":
		ix, err := roadindex.Load(cfg.Provider.SnapshotPath)
		if err != nil {
			return nil, err
		}
		slog.Info("road index loaded", "path", cfg.Provider.SnapshotPath, "roads", ix.Len())
		return ix, nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

// SweepOptions converts the sweep and provider settings.
func SweepOptions(cfg *config.Config) usecases.SweepOptions {
	return usecases.SweepOptions{
		FetchRadiusMiles: cfg.Sweep.FetchRadiusMiles,
		RingRadiiMiles:   cfg.Sweep.RingRadiiMiles,
		Parallel:         cfg.Sweep.Parallel,
		CacheTTLSeconds:  cfg.Provider.CacheTTLSeconds,
	}
}

// Sampler builds the configured point sampler.
func Sampler(cfg *config.Config) (geospatial.Sampler, error) {
	s := cfg.Sweep.Sampler
	return geospatial.NewSampler(s.Kind, s.MaxPerRing, s.Seed, s.Sectors, s.PerSector)
}

// CrossingService builds the service over b.
func (b *Backends) CrossingService(cfg *config.Config) (*usecases.CrossingService, error) {
	sampler, err := Sampler(cfg)
	if err != nil {
		return nil, err
	}

	// Typed nil pointers must not reach the interface parameters.
	var cache ports.CacheService
	if b.Cache != nil {
		cache = b.Cache
	}
	var publisher ports.EventPublisher
	if b.Publisher != nil {
		publisher = b.Publisher
	}
	return usecases.NewCrossingService(b.Provider, cache, publisher, sampler, SweepOptions(cfg)), nil
}

// Close releases every opened backend in reverse order.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
