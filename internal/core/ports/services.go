package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Geocoder turns free text into candidate coordinates.
// Zero candidates with a nil error is a normal outcome.
type Geocoder interface {
	Search(ctx context.Context, text string) ([]domain.GeocodeCandidate, error)
}

// RoutingProvider computes routes.
//
// A non-nil error means the call failed (transport, timeout, unreadable reply).
// A structured refusal from the provider is not an error: it is reported in
// RouteAttempt.Rejection so callers can branch on it.
type RoutingProvider interface {
	Directions(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error)
}

// PathCodec decodes the compact path geometry returned by the provider.
type PathCodec interface {
	Decode(encoded string) ([]domain.GeoPoint, error)
}

// IncidentRecorder accepts incident reports, either directly or via a workflow.
type IncidentRecorder interface {
	Record(ctx context.Context, location domain.GeoPoint) (*domain.Incident, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishIncident(ctx context.Context, incident *domain.Incident) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
