package geospatial

import (
	"fmt"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// NewBoundingBox returns a box sideMiles wide and sideMiles tall centered on
// center.
func NewBoundingBox(center domain.GeoPoint, sideMiles float64) domain.BoundingBox {
	width := MilesToLongitudeDegrees(sideMiles, center.Lat)
	height := MilesToLatitudeDegrees(sideMiles, center.Lat)

	return domain.BoundingBox{
		Left:   center.Lon - width/2,
		Right:  center.Lon + width/2,
		Top:    center.Lat + height/2,
		Bottom: center.Lat - height/2,
	}
}

// OverpassBBox formats a box in Overpass QL order: south,west,north,east.
func OverpassBBox(b domain.BoundingBox) string {
	return fmt.Sprintf("%f,%f,%f,%f", b.Bottom, b.Left, b.Top, b.Right)
}

// BoxKey is a cache key for a box, rounded to roughly 10 m.
func BoxKey(b domain.BoundingBox) string {
	return fmt.Sprintf("%.4f:%.4f:%.4f:%.4f", b.Bottom, b.Left, b.Top, b.Right)
}
