package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheControlFor picks a Cache-Control value for a GET path. The unsafe-zone
// list is fixed for the life of the process; incidents change constantly.
func cacheControlFor(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics":
		return "no-cache"
	case path == "/graphql":
		return "private, max-age=0"
	case strings.HasPrefix(path, "/v1/unsafe-zones"):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/v1/incidents"):
		return "no-cache"
	case strings.HasPrefix(path, "/docs"):
		return "public, max-age=300"
	}
	return ""
}

// CachingMiddleware sets Cache-Control on GET responses that lack one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet || c.Get(fiber.HeaderCacheControl) != "" {
			return err
		}
		if cc := cacheControlFor(c.Path()); cc != "" {
			c.Set(fiber.HeaderCacheControl, cc)
		}
		return err
	}
}

// ETagMiddleware tags successful GET bodies with a weak ETag and answers
// 304 when If-None-Match already carries it.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		sum := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(sum[:8]) + `"`
		c.Set(fiber.HeaderETag, etag)

		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}
