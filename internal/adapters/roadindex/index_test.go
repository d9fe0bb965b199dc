package roadindex_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/curbside/internal/adapters/roadindex"
	"github.com/samirrijal/curbside/internal/core/domain"
)

func road(id int64, pts ...[2]float64) domain.Road {
	line := make(domain.Polyline, len(pts))
	for i, p := range pts {
		line[i] = domain.GeoPoint{Lon: p[0], Lat: p[1]}
	}
	return domain.Road{ID: id, Geometry: line}
}

func ids(roads []domain.Road) []int64 {
	out := make([]int64, len(roads))
	for i, r := range roads {
		out[i] = r.ID
	}
	return out
}

func TestIndex_FetchRoads(t *testing.T) {
	// Roads 1 and 3 are axis-aligned; road 2 is far away; road 4 spans the
	// query box without a vertex inside it.
	ix := roadindex.New([]domain.Road{
		road(1, [2]float64{0, 0}, [2]float64{1, 0}),
		road(2, [2]float64{5, 5}, [2]float64{6, 6}),
		road(3, [2]float64{0.5, -1}, [2]float64{0.5, 1}),
		road(4, [2]float64{-3, -3}, [2]float64{3, 3}),
	})
	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, "roadindex", ix.Name())

	got, err := ix.FetchRoads(context.Background(), domain.BoundingBox{Left: 0.2, Right: 0.8, Bottom: -0.2, Top: 0.2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4}, ids(got))

	got, err = ix.FetchRoads(context.Background(), domain.BoundingBox{Left: 10, Right: 11, Bottom: 10, Top: 11})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndex_SkipsUnusableGeometry(t *testing.T) {
	ix := roadindex.New([]domain.Road{
		road(1),
		road(2, [2]float64{math.NaN(), 0}, [2]float64{1, 0}),
		road(3, [2]float64{0, 0}, [2]float64{1, 1}),
	})
	assert.Equal(t, 1, ix.Len())
}

func TestIndex_Add(t *testing.T) {
	ix := roadindex.New(nil)
	n := ix.Add(
		road(7, [2]float64{0, 0}, [2]float64{1, 1}),
		road(8),
		road(9, [2]float64{0.2, 0.2}, [2]float64{0.3, 0.3}),
	)
	assert.Equal(t, 2, n)

	got, err := ix.FetchRoads(context.Background(), domain.BoundingBox{Left: 0, Right: 1, Bottom: 0, Top: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, ids(got))
}

func TestLoad(t *testing.T) {
	ix, err := roadindex.Load("testdata/mission.json")
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())

	// A box around 16th and Valencia holds Market Street and Valencia Street
	// but not the service alley to the south-west.
	got, err := ix.FetchRoads(context.Background(), domain.BoundingBox{
		Left: -122.4200, Right: -122.4180, Bottom: 37.7740, Top: 37.7760,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{8917342, 27029711}, ids(got))
	assert.Equal(t, "Market Street", got[0].Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := roadindex.Load("testdata/nope.json")
	assert.Error(t, err)
}

func TestIndex_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := roadindex.New(nil).FetchRoads(ctx, domain.BoundingBox{Left: 0, Right: 1, Bottom: 0, Top: 1})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
