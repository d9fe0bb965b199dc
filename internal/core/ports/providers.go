package ports

import (
	"context"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// RoadGeometryProvider returns the roads whose geometry intersects a box.
// An empty result is valid. Implementations do not retry.
type RoadGeometryProvider interface {
	FetchRoads(ctx context.Context, box domain.BoundingBox) ([]domain.Road, error)
	// Name labels the provider in metrics and logs.
	Name() string
}
