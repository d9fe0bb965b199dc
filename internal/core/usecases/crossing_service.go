package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/curbside/internal/core/domain"
	"github.com/samirrijal/curbside/internal/core/ports"
	"github.com/samirrijal/curbside/internal/pkg/geospatial"
	"github.com/samirrijal/curbside/internal/pkg/metrics"
	"github.com/samirrijal/curbside/internal/pkg/telemetry"
)

// SweepOptions are the tunables of a crossing query.
type SweepOptions struct {
	FetchRadiusMiles float64
	RingRadiiMiles   []float64
	// Parallel evaluates each ring on its own goroutine.
	Parallel bool
	// CacheTTLSeconds is how long fetched road geometry stays cached.
	CacheTTLSeconds int
}

// DefaultSweepOptions returns a one-mile fetch box and four rings.
func DefaultSweepOptions() SweepOptions {
	return SweepOptions{
		FetchRadiusMiles: 1.0,
		RingRadiiMiles:   []float64{0.1, 0.25, 0.5, 0.75},
		CacheTTLSeconds:  3600,
	}
}

// CrossingService finds where nearby roads cross rings around a point.
type CrossingService struct {
	provider  ports.RoadGeometryProvider
	cache     ports.CacheService
	publisher ports.EventPublisher
	sampler   geospatial.Sampler
	opts      SweepOptions
	tracer    trace.Tracer
}

// NewCrossingService creates a new CrossingService. cache and publisher may
// be nil; a nil sampler keeps every point.
func NewCrossingService(
	provider ports.RoadGeometryProvider,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	sampler geospatial.Sampler,
	opts SweepOptions,
) *CrossingService {
	if sampler == nil {
		sampler = geospatial.NoCap{}
	}
	return &CrossingService{
		provider:  provider,
		cache:     cache,
		publisher: publisher,
		sampler:   sampler,
		opts:      opts,
		tracer:    otel.Tracer(telemetry.TracerName),
	}
}

// Options returns the sweep configuration in use.
func (s *CrossingService) Options() SweepOptions {
	return s.opts
}

// FindCrossings fetches the roads around center and returns their crossings
// with every configured ring.
func (s *CrossingService) FindCrossings(ctx context.Context, center domain.GeoPoint) (*domain.CrossingResult, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("%w: lat=%v lon=%v", domain.ErrInvalidCoordinate, center.Lat, center.Lon)
	}

	ctx, span := s.tracer.Start(ctx, telemetry.SpanFindCrossings, trace.WithAttributes(
		attribute.Float64(telemetry.AttrCenterLat, center.Lat),
		attribute.Float64(telemetry.AttrCenterLon, center.Lon),
		attribute.Float64(telemetry.AttrFetchRadius, s.opts.FetchRadiusMiles),
	))
	defer span.End()

	start := time.Now()
	box := geospatial.NewBoundingBox(center, s.opts.FetchRadiusMiles)

	roads, fromCache, err := s.roads(ctx, box, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rings, err := s.sweep(ctx, center, roads)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	rings = s.sampler.Sample(center, rings)

	result := &domain.CrossingResult{
		Center:           center,
		FetchRadiusMiles: s.opts.FetchRadiusMiles,
		Box:              box,
		RoadCount:        len(roads),
		Rings:            rings,
		Points:           geospatial.Flatten(rings),
	}
	observeRings(center, rings)

	span.SetAttributes(
		attribute.Int(telemetry.AttrRoadCount, result.RoadCount),
		attribute.Int(telemetry.AttrPointCount, result.PointCount()),
		attribute.Bool(telemetry.AttrCacheHit, fromCache),
	)

	s.publish(ctx, result, time.Since(start), fromCache)
	return result, nil
}

// Prefetch fetches the road geometry around center from the provider and
// stores it in the cache, bypassing any cached copy. It returns the number of
// roads cached.
func (s *CrossingService) Prefetch(ctx context.Context, center domain.GeoPoint) (int, error) {
	if !center.Valid() {
		return 0, fmt.Errorf("%w: lat=%v lon=%v", domain.ErrInvalidCoordinate, center.Lat, center.Lon)
	}

	ctx, span := s.tracer.Start(ctx, telemetry.SpanPrefetch)
	defer span.End()

	roads, _, err := s.roads(ctx, geospatial.NewBoundingBox(center, s.opts.FetchRadiusMiles), false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return len(roads), nil
}

// roads returns the roads in box, reading through the cache when readCache
// is set. The provider result is always written back.
func (s *CrossingService) roads(ctx context.Context, box domain.BoundingBox, readCache bool) ([]domain.Road, bool, error) {
	cacheKey := fmt.Sprintf("roads:%s:%s", s.provider.Name(), geospatial.BoxKey(box))
	if s.cache != nil && readCache {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var roads []domain.Road
			if err := json.Unmarshal(data, &roads); err == nil {
				metrics.CacheHits.WithLabelValues("roads").Inc()
				return roads, true, nil
			}
			// unreadable entry; drop it so the write-back below replaces it
			_ = s.cache.Delete(ctx, cacheKey)
		}
		metrics.CacheMisses.WithLabelValues("roads").Inc()
	}

	ctx, span := s.tracer.Start(ctx, telemetry.SpanFetchRoads, trace.WithAttributes(
		attribute.String(telemetry.AttrProvider, s.provider.Name()),
	))
	defer span.End()

	start := time.Now()
	roads, err := s.provider.FetchRoads(ctx, box)
	metrics.ProviderFetchDuration.WithLabelValues(s.provider.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(s.provider.Name()).Inc()
		slog.WarnContext(ctx, "road fetch failed",
			"provider", s.provider.Name(),
			"bbox", geospatial.OverpassBBox(box),
			"error", err,
		)
		return nil, false, fmt.Errorf("fetch roads from %s: %w", s.provider.Name(), err)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrRoadCount, len(roads)))

	if s.cache != nil && s.opts.CacheTTLSeconds > 0 {
		if data, err := json.Marshal(roads); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
		}
	}

	return roads, false, nil
}

func (s *CrossingService) sweep(ctx context.Context, center domain.GeoPoint, roads []domain.Road) ([]domain.RingCrossings, error) {
	_, span := s.tracer.Start(ctx, telemetry.SpanSweep, trace.WithAttributes(
		attribute.Int(telemetry.AttrRingCount, len(s.opts.RingRadiiMiles)),
	))
	defer span.End()

	polylines := make([]domain.Polyline, 0, len(roads))
	for _, r := range roads {
		if !r.Geometry.Finite() {
			metrics.SkippedPolylines.Inc()
			slog.WarnContext(ctx, "skipping road with non-finite geometry", "road_id", r.ID)
			continue
		}
		polylines = append(polylines, r.Geometry)
	}

	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	if s.opts.Parallel {
		return geospatial.SweepRingsParallel(ctx, center, s.opts.RingRadiiMiles, polylines)
	}
	return geospatial.SweepRingsByRadius(center, s.opts.RingRadiiMiles, polylines), nil
}

func (s *CrossingService) publish(ctx context.Context, result *domain.CrossingResult, elapsed time.Duration, fromCache bool) {
	if s.publisher == nil {
		return
	}

	event := &domain.CrossingsComputed{
		Center:     result.Center,
		RoadCount:  result.RoadCount,
		PointCount: result.PointCount(),
		RingCounts: make([]int, len(result.Rings)),
		RingRadii:  make([]float64, len(result.Rings)),
		DurationMS: float64(elapsed.Microseconds()) / 1000,
		FromCache:  fromCache,
	}
	for i, r := range result.Rings {
		event.RingCounts[i] = len(r.Points)
		event.RingRadii[i] = r.RadiusMiles
	}

	if err := s.publisher.PublishCrossingsComputed(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish crossings.computed failed", "error", err)
	}
}

func observeRings(center domain.GeoPoint, rings []domain.RingCrossings) {
	for _, r := range rings {
		metrics.SweepPoints.WithLabelValues(strconv.FormatFloat(r.RadiusMiles, 'g', -1, 64)).Observe(float64(len(r.Points)))
		for _, p := range r.Points {
			metrics.RingDrift.Observe(geospatial.RingDrift(center, r.RadiusMiles, p))
		}
	}
}
