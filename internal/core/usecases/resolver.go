package usecases

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// CoordinateResolver turns a LocationInput into a single coordinate.
type CoordinateResolver struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	cacheTTL time.Duration
}

// NewCoordinateResolver creates a resolver. cache may be nil.
func NewCoordinateResolver(geocoder ports.Geocoder, cache ports.CacheService, cacheTTL time.Duration) *CoordinateResolver {
	return &CoordinateResolver{geocoder: geocoder, cache: cache, cacheTTL: cacheTTL}
}

// Resolve returns the coordinate for in. Literals are returned without
// contacting the geocoder; text is geocoded once and the first match wins.
func (r *CoordinateResolver) Resolve(ctx context.Context, in domain.LocationInput) (domain.GeoPoint, error) {
	return r.ResolveAs(ctx, "", in)
}

// ResolveAs is Resolve with a role ("start", "end") used in error messages.
func (r *CoordinateResolver) ResolveAs(ctx context.Context, role string, in domain.LocationInput) (domain.GeoPoint, error) {
	if p, ok := in.Literal(); ok {
		if err := p.Validate(); err != nil {
			return domain.GeoPoint{}, domain.InvalidInput(err.Error())
		}
		metrics.GeocodeRequests.WithLabelValues("literal").Inc()
		return p, nil
	}

	text := strings.TrimSpace(in.Text())
	if text == "" {
		return domain.GeoPoint{}, domain.InvalidInput("Both addresses are required.")
	}

	cacheKey := geocodeCacheKey(text)
	if r.cache != nil {
		if data, err := r.cache.Get(ctx, cacheKey); err == nil {
			var p domain.GeoPoint
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				metrics.GeocodeRequests.WithLabelValues("cached").Inc()
				return p, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	candidates, err := r.geocoder.Search(ctx, text)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, domain.GeocodingFailure(err)
	}
	if len(candidates) == 0 {
		metrics.GeocodeRequests.WithLabelValues("no_match").Inc()
		return domain.GeoPoint{}, domain.NoMatch(noMatchMessage(role))
	}
	p := candidates[0].Location
	metrics.GeocodeRequests.WithLabelValues("geocoded").Inc()

	if r.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := r.cache.Set(ctx, cacheKey, data, int(r.cacheTTL.Seconds())); err != nil {
				logging.FromContext(ctx).Debug("geocode cache write failed", "error", err)
			}
		}
	}
	return p, nil
}

func geocodeCacheKey(text string) string {
	return "geocode:" + strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func noMatchMessage(role string) string {
	if role == "" {
		return "Could not geocode address."
	}
	return "Could not geocode " + role + " address."
}
