package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/curbside/internal/pkg/metrics"
)

// RequestTimeout bounds every crossing query served over HTTP.
const RequestTimeout = 15 * time.Second

// OpenAPIPath is where SetupRoutes reads the OpenAPI document from.
var OpenAPIPath = "api/openapi.yaml"

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestLoggerMiddleware())
	app.Use(AccessLogMiddleware())

	// Each query can trigger an upstream provider fetch; 60 per minute per IP.
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/crossings", timeout.NewWithContext(CrossingsHandler(deps), RequestTimeout))
	v1.Post("/crossings", timeout.NewWithContext(PostCrossingsHandler(deps), RequestTimeout))
	v1.Get("/crossings/rings", timeout.NewWithContext(RingsHandler(deps), RequestTimeout))
	v1.Get("/crossings.kml", timeout.NewWithContext(KMLHandler(deps), RequestTimeout))
	v1.Get("/sweep/config", SweepConfigHandler(deps))
	v1.Get("/roads/stats", timeout.NewWithContext(RoadStatsHandler(deps), RequestTimeout))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), RequestTimeout))

	SetupDocs(app, OpenAPIPath)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
