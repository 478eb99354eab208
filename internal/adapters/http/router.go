package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// RouterOptions tunes SetupRoutes. Zero values take the defaults.
type RouterOptions struct {
	// RateLimit is the per-IP request budget per minute.
	RateLimit int
	SpecPath  string
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, opts RouterOptions) {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 120
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestLogger())

	// Rate limiting per IP
	app.Use(limiter.New(limiter.Config{
		Max:        opts.RateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
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

	routeTimeout := deps.routeTimeout()

	v1 := app.Group("/v1")
	v1.Post("/route", timeout.NewWithContext(PlanRouteHandler(deps), routeTimeout))
	v1.Post("/incidents", timeout.NewWithContext(ReportIncidentHandler(deps), 15*time.Second))
	v1.Get("/incidents", timeout.NewWithContext(ListIncidentsHandler(deps), 15*time.Second))
	v1.Get("/unsafe-zones", UnsafeZonesHandler(deps))

	// Unversioned aliases
	app.Post(LegacyRoutes[0].Path, Deprecated(LegacyRoutes[0], timeout.NewWithContext(LegacyRouteHandler(deps), routeTimeout)))
	app.Post(LegacyRoutes[1].Path, Deprecated(LegacyRoutes[1], timeout.NewWithContext(LegacyReportIncidentHandler(deps), 15*time.Second)))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app, opts.SpecPath)

	// The incident relay needs a broker.
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
