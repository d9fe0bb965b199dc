package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/curbside/internal/bootstrap"
	"github.com/samirrijal/curbside/internal/pkg/config"
	"github.com/samirrijal/curbside/internal/pkg/logging"
	"github.com/samirrijal/curbside/internal/workflows"
)

func main() {
	cfg, err := config.Load("curbside-warmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	backends, err := bootstrap.Open(context.Background(), cfg, bootstrap.Options{Cache: true})
	if err != nil {
		log.Fatalf("backends: %v", err)
	}
	defer backends.Close()
	if backends.Cache == nil {
		// Prefetching without a cache only exercises the provider.
		slog.Warn("no road cache configured; warm-up results will not be kept")
	}

	crossings, err := backends.CrossingService(cfg)
	if err != nil {
		log.Fatalf("crossing service: %v", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.WarmRoadCacheWorkflow)
	w.RegisterActivity(&workflows.WarmActivities{Crossings: crossings})

	slog.Info("warm-up worker started", "task_queue", cfg.Temporal.TaskQueue, "provider", backends.Provider.Name())
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
