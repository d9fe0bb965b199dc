package overpass

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/samirrijal/curbside/internal/core/domain"
)

// DecodeRoads parses an Overpass JSON document produced with "out geom".
// Ways without inline geometry and non-way elements are ignored. A way with a
// missing or non-numeric vertex coordinate is dropped with a warning; only
// document-level problems fail the decode.
func DecodeRoads(body []byte) ([]domain.Road, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderMalformed, err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: top-level value is %s", domain.ErrProviderMalformed, v.Type())
	}

	// Overpass reports query timeouts and memory exhaustion in a 200 body.
	if remark := string(v.GetStringBytes("remark")); strings.Contains(remark, "runtime error") {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, remark)
	}

	elements := v.Get("elements")
	if elements == nil {
		return nil, fmt.Errorf("%w: missing elements", domain.ErrProviderMalformed)
	}
	items, err := elements.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: elements: %v", domain.ErrProviderMalformed, err)
	}

	roads := make([]domain.Road, 0, len(items))
	for i, el := range items {
		if t := el.GetStringBytes("type"); len(t) > 0 && string(t) != "way" {
			continue
		}
		vertices := el.GetArray("geometry")
		if len(vertices) == 0 {
			continue
		}

		road, err := decodeWay(el, vertices)
		if err != nil {
			slog.Warn("skipping malformed way",
				"element", i,
				"way_id", el.GetInt64("id"),
				"error", err,
			)
			continue
		}
		roads = append(roads, road)
	}
	return roads, nil
}

func decodeWay(el *fastjson.Value, vertices []*fastjson.Value) (domain.Road, error) {
	road := domain.Road{
		ID:       el.GetInt64("id"),
		Highway:  string(el.GetStringBytes("tags", "highway")),
		Name:     string(el.GetStringBytes("tags", "name")),
		Geometry: make(domain.Polyline, 0, len(vertices)),
	}
	for j, vertex := range vertices {
		lat, err := number(vertex, "lat")
		if err != nil {
			return domain.Road{}, fmt.Errorf("vertex %d: %w", j, err)
		}
		lon, err := number(vertex, "lon")
		if err != nil {
			return domain.Road{}, fmt.Errorf("vertex %d: %w", j, err)
		}
		road.Geometry = append(road.Geometry, domain.GeoPoint{Lat: lat, Lon: lon})
	}
	return road, nil
}

func number(v *fastjson.Value, key string) (float64, error) {
	f := v.Get(key)
	if f == nil {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, err := f.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
