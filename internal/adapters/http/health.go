package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

var errDisconnected = errors.New("disconnected")

// Version is reported by the health endpoint; set at build time.
var Version = "dev"

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": Version,
		}
		if deps.Avoidance != nil {
			body["unsafe_zones"] = len(deps.Avoidance.Zones())
		}
		return c.JSON(body)
	}
}

// ReadyHandler checks the optional backends. A backend that is not
// configured does not make the service unready; one that fails does.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true
		check := func(name string, configured bool, ping func(context.Context) error) {
			if !configured {
				checks[name] = "not configured"
				return
			}
			if err := ping(ctx); err != nil {
				checks[name] = "error: " + err.Error()
				allOK = false
				return
			}
			checks[name] = "ok"
		}

		check("database", deps.DB != nil, func(ctx context.Context) error { return deps.DB.Ping(ctx) })
		check("cache", deps.Cache != nil, func(ctx context.Context) error { return deps.Cache.Ping(ctx) })
		check("nats", deps.NATS != nil, func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		})

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
