package geospatial

import (
	"math"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// tangentTolerance bounds 1-h², where h is the distance in ellipse-unit space
// from the center to the segment's line. Inside it the line is treated as
// tangent. It absorbs the rounding of degree coordinates near 180 divided by
// ring axes of a few thousandths of a degree.
const tangentTolerance = 1e-9

// IntersectSegmentWithRing returns the points where the segment p1→p2 crosses
// the axis-aligned ellipse centered at center with semi-axes radiusLon and
// radiusLat (degrees). It returns zero, one or two points ordered along the
// segment. Zero-length segments, non-positive axes and non-finite input
// yield no points.
func IntersectSegmentWithRing(center domain.GeoPoint, radiusLon, radiusLat float64, p1, p2 domain.GeoPoint) []domain.IntersectionPoint {
	input := domain.Polyline{center, p1, p2}
	if !(radiusLon > 0) || !(radiusLat > 0) || !input.Finite() {
		return nil
	}

	// Move into ellipse-unit space, where the ring is the unit circle.
	x1 := (p1.Lon - center.Lon) / radiusLon
	y1 := (p1.Lat - center.Lat) / radiusLat
	x2 := (p2.Lon - center.Lon) / radiusLon
	y2 := (p2.Lat - center.Lat) / radiusLat

	dx := x2 - x1
	dy := y2 - y1

	a := dx*dx + dy*dy
	if a == 0 {
		return nil
	}
	b := 2 * (x1*dx + y1*dy)
	c := x1*x1 + y1*y1 - 1

	d := b*b - 4*a*c

	// d/4a == 1-h², so the tangency test is independent of segment length.
	gap := d / (4 * a)

	// Roots are emitted in ascending t so points follow the road direction.
	var ts []float64
	switch {
	case math.Abs(gap) <= tangentTolerance:
		ts = []float64{-b / (2 * a)}
	case gap < 0:
		return nil
	default:
		sq := math.Sqrt(d)
		ts = []float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)}
	}

	var points []domain.IntersectionPoint
	for _, t := range ts {
		if t < 0 || t > 1 {
			continue
		}
		// Interpolate in the original space to avoid denormalization error.
		points = append(points, domain.IntersectionPoint{
			Lon: p1.Lon + t*(p2.Lon-p1.Lon),
			Lat: p1.Lat + t*(p2.Lat-p1.Lat),
		})
	}
	return points
}

// IntersectPolylineWithRing accumulates the crossings of every segment of
// line, in segment order.
func IntersectPolylineWithRing(center domain.GeoPoint, radiusLon, radiusLat float64, line domain.Polyline) []domain.IntersectionPoint {
	var points []domain.IntersectionPoint
	for i := 0; i < line.Segments(); i++ {
		points = append(points, IntersectSegmentWithRing(center, radiusLon, radiusLat, line[i], line[i+1])...)
	}
	return points
}

// EllipseValue evaluates ((lon-cx)/radiusLon)² + ((lat-cy)/radiusLat)²; it is
// 1 for points on the ring.
func EllipseValue(center domain.GeoPoint, radiusLon, radiusLat float64, p domain.IntersectionPoint) float64 {
	x := (p.Lon - center.Lon) / radiusLon
	y := (p.Lat - center.Lat) / radiusLat
	return x*x + y*y
}
