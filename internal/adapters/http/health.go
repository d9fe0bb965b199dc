package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"uptime":   time.Since(startedAt).String(),
			"provider": deps.Provider,
			"version":  "dev",
		})
	}
}

// ReadyHandler checks the crossing service and every configured backend.
// Backends that are not configured are reported but do not fail the check.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true
		check := func(name string, configured bool, probe func() error) {
			if !configured {
				checks[name] = "not configured"
				return
			}
			if err := probe(); err != nil {
				checks[name] = "error: " + err.Error()
				allOK = false
				return
			}
			checks[name] = "ok"
		}

		if deps.Crossings == nil {
			checks["crossings"] = "not configured"
			allOK = false
		} else {
			checks["crossings"] = "ok"
		}

		check("database", deps.DB != nil, func() error { return deps.DB.Pool.Ping(ctx) })
		check("nats", deps.NATS != nil, func() error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		})
		check("cache", deps.Cache != nil, func() error { return deps.Cache.Ping(ctx) })

		status, code := "ready", fiber.StatusOK
		if !allOK {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
