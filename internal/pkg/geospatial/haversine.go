package geospatial

import (
	"math"

	"github.com/umahmood/haversine"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// DistanceMiles returns the great-circle distance in miles between two points.
func DistanceMiles(a, b domain.GeoPoint) float64 {
	mi, _ := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lon},
		haversine.Coord{Lat: b.Lat, Lon: b.Lon},
	)
	return mi
}

// RingDrift is the ground distance from center to p minus the ring radius,
// in miles. It measures how far the degree-space ellipse strays from a true
// circle.
func RingDrift(center domain.GeoPoint, radiusMiles float64, p domain.IntersectionPoint) float64 {
	return DistanceMiles(center, domain.GeoPoint{Lat: p.Lat, Lon: p.Lon}) - radiusMiles
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
