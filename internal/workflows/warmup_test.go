package workflows_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/curbside/internal/core/domain"
	"github.com/samirrijal/curbside/internal/workflows"
)

// fakePrefetcher returns one road per call, failing for the listed points.
type fakePrefetcher struct {
	mu    sync.Mutex
	calls map[domain.GeoPoint]int
	fail  map[domain.GeoPoint]error
}

func newFakePrefetcher() *fakePrefetcher {
	return &fakePrefetcher{calls: map[domain.GeoPoint]int{}, fail: map[domain.GeoPoint]error{}}
}

func (f *fakePrefetcher) Prefetch(ctx context.Context, center domain.GeoPoint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[center]++
	if err, ok := f.fail[center]; ok {
		return 0, err
	}
	return 3, nil
}

func (f *fakePrefetcher) callsFor(p domain.GeoPoint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[p]
}

func runWarmUp(t *testing.T, prefetcher *fakePrefetcher, input workflows.WarmInput) workflows.WarmResult {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.WarmRoadCacheWorkflow)
	env.RegisterActivity(&workflows.WarmActivities{Crossings: prefetcher})

	env.ExecuteWorkflow(workflows.WarmRoadCacheWorkflow, input)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result workflows.WarmResult
	require.NoError(t, env.GetWorkflowResult(&result))
	return result
}

func TestWarmRoadCacheWorkflow_AllPoints(t *testing.T) {
	prefetcher := newFakePrefetcher()
	points := make([]domain.GeoPoint, 6)
	for i := range points {
		points[i] = domain.GeoPoint{Lat: 37.77 + float64(i)*0.01, Lon: -122.42}
	}

	result := runWarmUp(t, prefetcher, workflows.WarmInput{Points: points, BatchSize: 4})

	assert.Equal(t, 6, result.Warmed)
	assert.Equal(t, 18, result.Roads)
	assert.Empty(t, result.Failed)
	for _, p := range points {
		assert.Equal(t, 1, prefetcher.callsFor(p), "point %v", p)
	}
}

func TestWarmRoadCacheWorkflow_Failures(t *testing.T) {
	good := domain.GeoPoint{Lat: 40.015, Lon: -105.27}
	flaky := domain.GeoPoint{Lat: 40.02, Lon: -105.28}
	invalid := domain.GeoPoint{Lat: 91, Lon: 0}

	prefetcher := newFakePrefetcher()
	prefetcher.fail[flaky] = fmt.Errorf("%w: 429", domain.ErrProviderUnavailable)
	prefetcher.fail[invalid] = fmt.Errorf("%w: lat=91", domain.ErrInvalidCoordinate)

	result := runWarmUp(t, prefetcher, workflows.WarmInput{Points: []domain.GeoPoint{good, flaky, invalid}})

	assert.Equal(t, 1, result.Warmed)
	assert.Equal(t, 3, result.Roads)
	assert.ElementsMatch(t, []domain.GeoPoint{flaky, invalid}, result.Failed)
	// Provider failures use the full retry policy; bad input is not retried.
	assert.Equal(t, 3, prefetcher.callsFor(flaky))
	assert.Equal(t, 1, prefetcher.callsFor(invalid))
}

func TestWarmRoadCacheWorkflow_Empty(t *testing.T) {
	result := runWarmUp(t, newFakePrefetcher(), workflows.WarmInput{})
	assert.Zero(t, result.Warmed)
	assert.Empty(t, result.Failed)
}
