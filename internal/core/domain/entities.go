package domain

import "errors"

var (
	// ErrInvalidCoordinate is returned for non-finite or out-of-range input.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrProviderUnavailable wraps transport failures of the road provider.
	ErrProviderUnavailable = errors.New("road geometry provider unavailable")
	// ErrProviderMalformed wraps undecodable provider responses.
	ErrProviderMalformed = errors.New("road geometry provider returned a malformed response")
)

// Road is a single road way returned by a geometry provider.
type Road struct {
	ID       int64    `json:"id"`
	Highway  string   `json:"highway,omitempty"`
	Name     string   `json:"name,omitempty"`
	Geometry Polyline `json:"geometry"`
}

// RingCrossings holds the crossing points found on one ring.
type RingCrossings struct {
	RadiusMiles float64             `json:"radius_miles"`
	Points      []IntersectionPoint `json:"points"`
}

// CrossingResult is the outcome of one crossing query.
type CrossingResult struct {
	Center           GeoPoint            `json:"center"`
	FetchRadiusMiles float64             `json:"fetch_radius_miles"`
	Box              BoundingBox         `json:"box"`
	RoadCount        int                 `json:"road_count"`
	Rings            []RingCrossings     `json:"rings"`
	Points           []IntersectionPoint `json:"-"`
}

// PointCount returns the number of crossing points across all rings.
func (r *CrossingResult) PointCount() int {
	return len(r.Points)
}

// Pairs returns all points as [lon, lat] pairs in sweep order.
func (r *CrossingResult) Pairs() [][2]float64 {
	pairs := make([][2]float64, len(r.Points))
	for i, p := range r.Points {
		pairs[i] = p.Pair()
	}
	return pairs
}

// CrossingsComputed is the event published after a successful query.
type CrossingsComputed struct {
	Center     GeoPoint  `json:"center"`
	RoadCount  int       `json:"road_count"`
	PointCount int       `json:"point_count"`
	RingCounts []int     `json:"ring_counts"`
	RingRadii  []float64 `json:"ring_radii_miles"`
	DurationMS float64   `json:"duration_ms"`
	FromCache  bool      `json:"from_cache"`
}

// PointsResponse is the wire shape of a basic crossing query result.
type PointsResponse struct {
	PointCount int          `json:"pointCount"`
	Points     [][2]float64 `json:"points"`
}

// Response returns the flattened [lon, lat] wire shape of the result.
func (r *CrossingResult) Response() PointsResponse {
	return PointsResponse{PointCount: r.PointCount(), Points: r.Pairs()}
}
