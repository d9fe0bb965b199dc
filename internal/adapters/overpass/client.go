package overpass

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/curbside/internal/core/domain"
	"github.com/samirrijal/curbside/internal/pkg/geospatial"
)

// DefaultHighwayClasses are the OSM highway values a vehicle can stop on.
var DefaultHighwayClasses = []string{
	"primary", "secondary", "tertiary", "residential", "service", "unclassified",
}

// Client implements ports.RoadGeometryProvider against an Overpass API
// interpreter endpoint.
type Client struct {
	http    *fasthttp.Client
	url     string
	timeout time.Duration
	classes []string
}

// New creates an Overpass client. An empty classes list selects
// DefaultHighwayClasses.
func New(url string, timeout time.Duration, classes []string) *Client {
	if len(classes) == 0 {
		classes = DefaultHighwayClasses
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                "curbside",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		url:     url,
		timeout: timeout,
		classes: classes,
	}
}

// Name returns the provider label.
func (c *Client) Name() string { return "overpass" }

// FetchRoads returns the ways of the configured highway classes intersecting
// box, with their full geometry.
func (c *Client) FetchRoads(ctx context.Context, box domain.BoundingBox) ([]domain.Road, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.PostArgs().Set("data", BuildQuery(box, c.classes, int(c.timeout.Seconds())))

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: overpass returned status %d", domain.ErrProviderUnavailable, status)
	}

	return DecodeRoads(resp.Body())
}

// BuildQuery renders the Overpass QL union of one way filter per highway
// class over box, asking for inline geometry.
func BuildQuery(box domain.BoundingBox, classes []string, timeoutSeconds int) string {
	bbox := geospatial.OverpassBBox(box)

	var b strings.Builder
	if timeoutSeconds > 0 {
		fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", timeoutSeconds)
	} else {
		b.WriteString("[out:json];\n(\n")
	}
	for _, class := range classes {
		fmt.Fprintf(&b, "  way[\"highway\"=%q](%s);\n", class, bbox)
	}
	b.WriteString(");\nout geom;")
	return b.String()
}
