package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/curbside/internal/adapters/postgis"
	"github.com/samirrijal/curbside/internal/core/domain"
)

// coordinateBody is the POST /v1/crossings request.
type coordinateBody struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// RingView is one ring of the detailed crossings response. Polyline is the
// ring's points in sweep order as an encoded polyline (precision 5).
type RingView struct {
	RadiusMiles float64      `json:"radiusMiles"`
	PointCount  int          `json:"pointCount"`
	Polyline    string       `json:"polyline"`
	Points      [][2]float64 `json:"points"`
}

// RingsView is the detailed crossings response.
type RingsView struct {
	Center           domain.GeoPoint `json:"center"`
	FetchRadiusMiles float64         `json:"fetchRadiusMiles"`
	RoadCount        int             `json:"roadCount"`
	PointCount       int             `json:"pointCount"`
	Rings            []RingView      `json:"rings"`
}

// NewRingsView builds the per-ring breakdown of res.
func NewRingsView(res *domain.CrossingResult) RingsView {
	v := RingsView{
		Center:           res.Center,
		FetchRadiusMiles: res.FetchRadiusMiles,
		RoadCount:        res.RoadCount,
		PointCount:       res.PointCount(),
		Rings:            make([]RingView, len(res.Rings)),
	}
	for i, ring := range res.Rings {
		pairs := make([][2]float64, len(ring.Points))
		coords := make([][]float64, len(ring.Points))
		for j, p := range ring.Points {
			pairs[j] = p.Pair()
			coords[j] = []float64{p.Lat, p.Lon}
		}
		v.Rings[i] = RingView{
			RadiusMiles: ring.RadiusMiles,
			PointCount:  len(ring.Points),
			Polyline:    string(polyline.EncodeCoords(coords)),
			Points:      pairs,
		}
	}
	return v
}

// queryCoordinate reads lat and lon from the query string. Range checks are
// left to the crossing service.
func queryCoordinate(c *fiber.Ctx) (domain.GeoPoint, string) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return domain.GeoPoint{}, "lat and lon query parameters are required"
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.GeoPoint{}, "lat must be a number"
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return domain.GeoPoint{}, "lon must be a number"
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, ""
}

// CrossingsHandler answers GET /v1/crossings?lat=&lon= with the flattened
// [lon, lat] crossing points.
func CrossingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, msg := queryCoordinate(c)
		if msg != "" {
			return errBadRequest(c, msg)
		}
		res, err := deps.Crossings.FindCrossings(c.UserContext(), center)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(res.Response())
	}
}

// PostCrossingsHandler answers POST /v1/crossings with a {"lat","lon"} body.
func PostCrossingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body coordinateBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Lat == nil || body.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}
		res, err := deps.Crossings.FindCrossings(c.UserContext(), domain.GeoPoint{Lat: *body.Lat, Lon: *body.Lon})
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(res.Response())
	}
}

// RingsHandler answers GET /v1/crossings/rings with the per-ring breakdown.
func RingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, msg := queryCoordinate(c)
		if msg != "" {
			return errBadRequest(c, msg)
		}
		res, err := deps.Crossings.FindCrossings(c.UserContext(), center)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(NewRingsView(res))
	}
}

// SweepConfigHandler reports the active sweep settings.
func SweepConfigHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := deps.Crossings.Options()
		return c.JSON(fiber.Map{
			"provider":         deps.Provider,
			"fetchRadiusMiles": opts.FetchRadiusMiles,
			"ringRadiiMiles":   opts.RingRadiiMiles,
			"parallel":         opts.Parallel,
			"cacheTtlSeconds":  opts.CacheTTLSeconds,
		})
	}
}

// RoadStatsHandler returns counts from the PostGIS roads table.
func RoadStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return newError(c, 503, "unavailable", "database not configured")
		}
		stats, err := postgis.NewRoadRepo(deps.DB, nil).Stats(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(stats)
	}
}
