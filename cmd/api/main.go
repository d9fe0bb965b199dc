package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/curbside/internal/adapters/http"
	natsadapter "github.com/samirrijal/curbside/internal/adapters/nats"
	"github.com/samirrijal/curbside/internal/bootstrap"
	"github.com/samirrijal/curbside/internal/pkg/config"
	"github.com/samirrijal/curbside/internal/pkg/logging"
	"github.com/samirrijal/curbside/internal/pkg/metrics"
	"github.com/samirrijal/curbside/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("curbside-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	backends, err := bootstrap.Open(ctx, cfg, bootstrap.Options{Cache: true, Events: true})
	if err != nil {
		log.Fatalf("backends: %v", err)
	}
	defer backends.Close()

	crossings, err := backends.CrossingService(cfg)
	if err != nil {
		log.Fatalf("crossing service: %v", err)
	}

	deps := &http.Dependencies{
		Crossings: crossings,
		Provider:  backends.Provider.Name(),
		DB:        backends.DB,
		Cache:     backends.Cache,
	}

	// crossings.find request/reply and the WebSocket event relay share the
	// publisher's connection.
	if backends.Publisher != nil {
		deps.NATS = backends.Publisher.Conn()
		responder := natsadapter.NewResponder(deps.NATS, crossings, http.RequestTimeout)
		if err := responder.Start(ctx); err != nil {
			slog.Warn("nats responder unavailable", "error", err)
		} else {
			defer responder.Close()
		}
	}

	if backends.DB != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(backends.DB.Pool.Stat())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Curbside Crossing API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting",
			"addr", addr,
			"provider", deps.Provider,
			"fetch_radius_miles", cfg.Sweep.FetchRadiusMiles,
			"ring_radii_miles", cfg.Sweep.RingRadiiMiles,
		)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
