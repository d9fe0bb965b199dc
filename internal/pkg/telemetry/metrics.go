package telemetry

// Span and attribute names used for instrumentation.
const (
	TracerName = "github.com/samirrijal/curbside"

	SpanFindCrossings = "crossings.find"
	SpanFetchRoads    = "crossings.fetch_roads"
	SpanSweep         = "crossings.sweep"
	SpanPrefetch      = "crossings.prefetch"

	AttrProvider    = "curbside.provider"
	AttrRoadCount   = "curbside.road_count"
	AttrPointCount  = "curbside.point_count"
	AttrRingCount   = "curbside.ring_count"
	AttrCacheHit    = "curbside.cache_hit"
	AttrCenterLat   = "curbside.center.lat"
	AttrCenterLon   = "curbside.center.lon"
	AttrFetchRadius = "curbside.fetch_radius_miles"
)
