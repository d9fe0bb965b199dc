package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the crossing service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	// [lon, lat] pairs
	pointsType := graphql.NewList(graphql.NewList(graphql.Float))

	ringType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Ring",
		Fields: graphql.Fields{
			"radiusMiles": &graphql.Field{Type: graphql.Float},
			"pointCount":  &graphql.Field{Type: graphql.Int},
			"polyline":    &graphql.Field{Type: graphql.String},
			"points":      &graphql.Field{Type: pointsType},
		},
	})

	crossingsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Crossings",
		Fields: graphql.Fields{
			"center":           &graphql.Field{Type: geoPointType},
			"fetchRadiusMiles": &graphql.Field{Type: graphql.Float},
			"roadCount":        &graphql.Field{Type: graphql.Int},
			"pointCount":       &graphql.Field{Type: graphql.Int},
			"points":           &graphql.Field{Type: pointsType},
			"rings":            &graphql.Field{Type: graphql.NewList(ringType)},
		},
	})

	sweepConfigType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SweepConfig",
		Fields: graphql.Fields{
			"provider":         &graphql.Field{Type: graphql.String},
			"fetchRadiusMiles": &graphql.Field{Type: graphql.Float},
			"ringRadiiMiles":   &graphql.Field{Type: graphql.NewList(graphql.Float)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"crossings": &graphql.Field{
				Type:        crossingsType,
				Description: "Road crossings with the rings around a point",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.GeoPoint{
						Lat: p.Args["lat"].(float64),
						Lon: p.Args["lon"].(float64),
					}
					res, err := deps.Crossings.FindCrossings(p.Context, center)
					if err != nil {
						return nil, err
					}
					return crossingsObject(res), nil
				},
			},
			"sweepConfig": &graphql.Field{
				Type:        sweepConfigType,
				Description: "Active sweep settings",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					opts := deps.Crossings.Options()
					return map[string]interface{}{
						"provider":         deps.Provider,
						"fetchRadiusMiles": opts.FetchRadiusMiles,
						"ringRadiiMiles":   opts.RingRadiiMiles,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// crossingsObject converts a result into maps; graphql-go only iterates
// slices, so [2]float64 pairs become []float64.
func crossingsObject(res *domain.CrossingResult) map[string]interface{} {
	view := NewRingsView(res)
	rings := make([]map[string]interface{}, len(view.Rings))
	for i, r := range view.Rings {
		rings[i] = map[string]interface{}{
			"radiusMiles": r.RadiusMiles,
			"pointCount":  r.PointCount,
			"polyline":    r.Polyline,
			"points":      pairSlices(r.Points),
		}
	}
	return map[string]interface{}{
		"center":           map[string]interface{}{"lat": res.Center.Lat, "lon": res.Center.Lon},
		"fetchRadiusMiles": res.FetchRadiusMiles,
		"roadCount":        res.RoadCount,
		"pointCount":       res.PointCount(),
		"points":           pairSlices(res.Pairs()),
		"rings":            rings,
	}
}

func pairSlices(pairs [][2]float64) [][]float64 {
	out := make([][]float64, len(pairs))
	for i, p := range pairs {
		out[i] = []float64{p[0], p[1]}
	}
	return out
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
