package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

// RequestLogger attaches a logger carrying the request ID to the user
// context, so use cases log with it through logging.FromContext, and writes
// one access line per request once the handler returns.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		logger := slog.Default()
		if rid, _ := c.Locals("requestid").(string); rid != "" {
			logger = logger.With("request_id", rid)
		}
		c.SetUserContext(logging.WithLogger(c.UserContext(), logger))

		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		switch {
		case err != nil || status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		logger.LogAttrs(c.UserContext(), level, method+" "+path, attrs...)

		return err
	}
}
