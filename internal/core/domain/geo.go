package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point has finite coordinates inside the usable
// range. The poles are excluded because a parallel there has zero length.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat > -90 && p.Lat < 90 && p.Lon >= -180 && p.Lon <= 180
}

// Polyline is an ordered sequence of vertices. Fewer than two vertices means
// no segments.
type Polyline []GeoPoint

// Segments returns the number of consecutive vertex pairs.
func (p Polyline) Segments() int {
	if len(p) < 2 {
		return 0
	}
	return len(p) - 1
}

// Finite reports whether every vertex has finite coordinates.
func (p Polyline) Finite() bool {
	for _, v := range p {
		if math.IsNaN(v.Lat) || math.IsNaN(v.Lon) || math.IsInf(v.Lat, 0) || math.IsInf(v.Lon, 0) {
			return false
		}
	}
	return true
}

// BoundingBox represents a geographic bounding box in degrees.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether p lies inside the box (edges included).
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lon >= b.Left && p.Lon <= b.Right && p.Lat >= b.Bottom && p.Lat <= b.Top
}

// Intersects reports whether two boxes overlap.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Left <= o.Right && o.Left <= b.Right && b.Bottom <= o.Top && o.Bottom <= b.Top
}

// IntersectionPoint is a point on a road segment lying on a ring boundary.
type IntersectionPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Pair returns the point as a [lon, lat] pair.
func (p IntersectionPoint) Pair() [2]float64 {
	return [2]float64{p.Lon, p.Lat}
}
