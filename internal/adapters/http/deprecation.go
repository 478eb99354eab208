package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LegacySunset is when the unversioned routes stop being served.
var LegacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// DeprecatedRoute describes an unversioned alias kept for old clients.
type DeprecatedRoute struct {
	Path        string
	SunsetDate  time.Time
	Alternative string
}

// LegacyRoutes are the pre-v1 aliases and their successors.
var LegacyRoutes = []DeprecatedRoute{
	{Path: "/get_route", SunsetDate: LegacySunset, Alternative: "/v1/route"},
	{Path: "/report_incident", SunsetDate: LegacySunset, Alternative: "/v1/incidents"},
}

// Deprecated wraps h so every response carries Deprecation, Sunset and a
// successor Link (RFC 8594, RFC 8288).
func Deprecated(d DeprecatedRoute, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Deprecation", "true")
		c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))
		if d.Alternative != "" {
			c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
		}
		return h(c)
	}
}
