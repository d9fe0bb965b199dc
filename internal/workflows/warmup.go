package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/curbside/internal/core/domain"
)

const (
	// TaskQueue is the default queue of the warm-up worker.
	TaskQueue = "road-cache-warmup"
	// ErrTypeInvalidCoordinate marks non-retryable activity failures.
	ErrTypeInvalidCoordinate = "InvalidCoordinate"

	defaultBatchSize = 4
)

// WarmInput is the input of WarmRoadCacheWorkflow.
type WarmInput struct {
	Points []domain.GeoPoint
	// BatchSize bounds how many points are fetched at once. Zero means 4.
	BatchSize int
}

// WarmResult reports what the workflow cached.
type WarmResult struct {
	Warmed int
	Roads  int
	Failed []domain.GeoPoint
}

// WarmRoadCacheWorkflow prefetches the road geometry around every input
// point so later crossing queries are served from the cache. Points are
// processed in batches; a point that still fails after its retries is
// recorded in the result and does not fail the workflow.
func WarmRoadCacheWorkflow(ctx workflow.Context, input WarmInput) (WarmResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting road cache warm-up", "points", len(input.Points))

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeInvalidCoordinate},
		},
	})

	batch := input.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	var result WarmResult
	for start := 0; start < len(input.Points); start += batch {
		end := start + batch
		if end > len(input.Points) {
			end = len(input.Points)
		}

		futures := make([]workflow.Future, 0, end-start)
		for _, p := range input.Points[start:end] {
			futures = append(futures, workflow.ExecuteActivity(ctx, "WarmRoadCache", p))
		}
		for i, f := range futures {
			var roads int
			if err := f.Get(ctx, &roads); err != nil {
				p := input.Points[start+i]
				logger.Warn("warm-up failed", "lat", p.Lat, "lon", p.Lon, "error", err)
				result.Failed = append(result.Failed, p)
				continue
			}
			result.Warmed++
			result.Roads += roads
		}
	}

	logger.Info("Road cache warm-up finished", "warmed", result.Warmed, "failed", len(result.Failed))
	return result, nil
}
