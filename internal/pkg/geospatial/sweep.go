package geospatial

import (
	"context"
	"sync"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// SweepRings intersects every segment of every polyline with every ring and
// returns the flattened crossings, grouped by radius, then polyline, then
// segment. Duplicates are kept.
func SweepRings(center domain.GeoPoint, radiiMiles []float64, polylines []domain.Polyline) []domain.IntersectionPoint {
	return Flatten(SweepRingsByRadius(center, radiiMiles, polylines))
}

// SweepRingsByRadius is SweepRings with the crossings kept per ring, in the
// order of radiiMiles.
func SweepRingsByRadius(center domain.GeoPoint, radiiMiles []float64, polylines []domain.Polyline) []domain.RingCrossings {
	rings := make([]domain.RingCrossings, len(radiiMiles))
	for i, radius := range radiiMiles {
		rings[i] = sweepRing(center, radius, polylines)
	}
	return rings
}

// SweepRingsParallel evaluates each ring on its own goroutine. The result is
// identical to SweepRingsByRadius. It stops early if ctx is cancelled.
func SweepRingsParallel(ctx context.Context, center domain.GeoPoint, radiiMiles []float64, polylines []domain.Polyline) ([]domain.RingCrossings, error) {
	rings := make([]domain.RingCrossings, len(radiiMiles))

	var wg sync.WaitGroup
	for i, radius := range radiiMiles {
		wg.Add(1)
		go func(i int, radius float64) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			rings[i] = sweepRing(center, radius, polylines)
		}(i, radius)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rings, nil
}

// Flatten concatenates ring crossings in ring order.
func Flatten(rings []domain.RingCrossings) []domain.IntersectionPoint {
	n := 0
	for _, r := range rings {
		n += len(r.Points)
	}
	points := make([]domain.IntersectionPoint, 0, n)
	for _, r := range rings {
		points = append(points, r.Points...)
	}
	return points
}

func sweepRing(center domain.GeoPoint, radiusMiles float64, polylines []domain.Polyline) domain.RingCrossings {
	radiusLon, radiusLat := RingAxes(radiusMiles, center.Lat)

	ring := domain.RingCrossings{RadiusMiles: radiusMiles, Points: []domain.IntersectionPoint{}}
	for _, line := range polylines {
		ring.Points = append(ring.Points, IntersectPolylineWithRing(center, radiusLon, radiusLat, line)...)
	}
	return ring
}
