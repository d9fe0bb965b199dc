package overpass_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/curbside/internal/adapters/overpass"
	"github.com/samirrijal/curbside/internal/core/domain"
)

var box = domain.BoundingBox{Left: -122.43, Right: -122.40, Top: 37.79, Bottom: 37.76}

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/mission.json")
	require.NoError(t, err)
	return data
}

func TestBuildQuery(t *testing.T) {
	q := overpass.BuildQuery(box, overpass.DefaultHighwayClasses, 25)

	assert.True(t, strings.HasPrefix(q, "[out:json][timeout:25];"))
	assert.True(t, strings.HasSuffix(q, "out geom;"))
	for _, class := range overpass.DefaultHighwayClasses {
		assert.Contains(t, q, `way["highway"="`+class+`"](37.760000,-122.430000,37.790000,-122.400000);`)
	}
	assert.Equal(t, 6, strings.Count(q, "way["))
}

func TestDecodeRoads(t *testing.T) {
	roads, err := overpass.DecodeRoads(readFixture(t))
	require.NoError(t, err)
	require.Len(t, roads, 3)

	assert.Equal(t, int64(8917342), roads[0].ID)
	assert.Equal(t, "primary", roads[0].Highway)
	assert.Equal(t, "Market Street", roads[0].Name)
	require.Len(t, roads[0].Geometry, 3)
	assert.Equal(t, domain.GeoPoint{Lat: 37.7749, Lon: -122.4194}, roads[0].Geometry[1])

	assert.Empty(t, roads[2].Name)
}

func TestDecodeRoads_Empty(t *testing.T) {
	roads, err := overpass.DecodeRoads([]byte(`{"elements": []}`))
	require.NoError(t, err)
	assert.Empty(t, roads)
}

func TestDecodeRoads_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":         `<html>busy</html>`,
		"array":            `[1, 2]`,
		"missing elements": `{"version": 0.6}`,
		"elements object":  `{"elements": {}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := overpass.DecodeRoads([]byte(body))
			assert.ErrorIs(t, err, domain.ErrProviderMalformed)
		})
	}
}

func TestDecodeRoads_SkipsBadWays(t *testing.T) {
	body := `{"elements": [
		{"type": "way", "id": 1, "geometry": [{"lat": 1}, {"lat": 1, "lon": 2}]},
		{"type": "way", "id": 2, "tags": {"highway": "residential"}, "geometry": [{"lat": 1, "lon": 2}, {"lat": 1.5, "lon": 2.5}]},
		{"type": "way", "id": 3, "geometry": [{"lat": "1", "lon": 2}]}
	]}`
	roads, err := overpass.DecodeRoads([]byte(body))
	require.NoError(t, err)
	require.Len(t, roads, 1)
	assert.Equal(t, int64(2), roads[0].ID)
	assert.Equal(t, "residential", roads[0].Highway)
	assert.Equal(t, domain.Polyline{{Lat: 1, Lon: 2}, {Lat: 1.5, Lon: 2.5}}, roads[0].Geometry)
}

func TestDecodeRoads_RuntimeRemark(t *testing.T) {
	body := `{"elements": [], "remark": "runtime error: Query timed out in \"query\" at line 3 after 26 seconds."}`
	_, err := overpass.DecodeRoads([]byte(body))
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_FetchRoads(t *testing.T) {
	fixture := readFixture(t)

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		assert.NoError(t, err)
		gotQuery = form.Get("data")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	c := overpass.New(srv.URL, 5*time.Second, nil)
	assert.Equal(t, "overpass", c.Name())

	roads, err := c.FetchRoads(context.Background(), box)
	require.NoError(t, err)
	assert.Len(t, roads, 3)
	assert.Equal(t, overpass.BuildQuery(box, overpass.DefaultHighwayClasses, 5), gotQuery)
}

func TestClient_FetchRoads_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := overpass.New(srv.URL, 5*time.Second, nil).FetchRoads(context.Background(), box)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	assert.Contains(t, err.Error(), "429")
}

func TestClient_FetchRoads_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements": `))
	}))
	defer srv.Close()

	_, err := overpass.New(srv.URL, 5*time.Second, nil).FetchRoads(context.Background(), box)
	assert.ErrorIs(t, err, domain.ErrProviderMalformed)
}

func TestClient_FetchRoads_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := overpass.New(addr, time.Second, nil).FetchRoads(context.Background(), box)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_FetchRoads_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := overpass.New("http://127.0.0.1:1", time.Second, nil).FetchRoads(ctx, box)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
