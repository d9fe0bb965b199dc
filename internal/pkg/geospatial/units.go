package geospatial

import "math"

// Ellipsoid parameters for the contiguous US, in miles.
const (
	semiMajorMiles = 3963.190592
	eccentricity   = 0.081819191
)

// MilesToLatitudeDegrees converts a north-south distance to degrees of
// latitude at the given latitude.
func MilesToLatitudeDegrees(miles, latitude float64) float64 {
	// length of one radian of latitude, in miles
	m := semiMajorMiles * (1 - eccentricity*eccentricity) / math.Pow(1-sinSquared(latitude), 1.5)
	return miles * 180 / (math.Pi * m)
}

// MilesToLongitudeDegrees converts an east-west distance to degrees of
// longitude at the given latitude. The result grows without bound toward the
// poles.
func MilesToLongitudeDegrees(miles, latitude float64) float64 {
	// length of one radian of longitude, in miles
	r := semiMajorMiles * math.Cos(toRad(latitude)) / math.Sqrt(1-sinSquared(latitude))
	return miles * 180 / (math.Pi * r)
}

// RingAxes returns the longitude and latitude semi-axes, in degrees, of the
// ellipse approximating a ground circle of radiusMiles at latitude.
func RingAxes(radiusMiles, latitude float64) (radiusLon, radiusLat float64) {
	return MilesToLongitudeDegrees(radiusMiles, latitude), MilesToLatitudeDegrees(radiusMiles, latitude)
}

func sinSquared(latitude float64) float64 {
	s := eccentricity * math.Sin(toRad(latitude))
	return s * s
}
