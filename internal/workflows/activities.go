package workflows

import (
	"context"
	"errors"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// Prefetcher loads the road geometry around a point into the cache.
type Prefetcher interface {
	Prefetch(ctx context.Context, center domain.GeoPoint) (int, error)
}

// WarmActivities holds the activity implementations for the warm-up workflow.
type WarmActivities struct {
	Crossings Prefetcher
}

// WarmRoadCache fetches and caches the roads around one point and returns the
// number of roads cached. Invalid coordinates are not retried.
func (a *WarmActivities) WarmRoadCache(ctx context.Context, point domain.GeoPoint) (int, error) {
	n, err := a.Crossings.Prefetch(ctx, point)
	if errors.Is(err, domain.ErrInvalidCoordinate) {
		return 0, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidCoordinate, err)
	}
	if err != nil {
		return 0, err
	}
	slog.Info("road cache warmed", "lat", point.Lat, "lon", point.Lon, "roads", n)
	return n, nil
}
