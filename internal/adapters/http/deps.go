package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/saferoute/internal/adapters/postgres"
	"github.com/samirrijal/saferoute/internal/adapters/valkey"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

// DefaultRouteTimeout bounds one /v1/route request, which may call the
// provider three times.
const DefaultRouteTimeout = 45 * time.Second

// Dependencies holds all services needed by HTTP handlers.
// NATS, DB and Cache are optional.
type Dependencies struct {
	Routes    *usecases.RouteService
	Avoidance *usecases.AvoidanceAssembler
	Incidents *usecases.IncidentService
	// Recorder accepts new reports. It is Incidents itself, or a workflow
	// dispatcher when Temporal is enabled.
	Recorder     ports.IncidentRecorder
	RouteTimeout time.Duration
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache
}

func (d *Dependencies) routeTimeout() time.Duration {
	if d.RouteTimeout > 0 {
		return d.RouteTimeout
	}
	return DefaultRouteTimeout
}

func (d *Dependencies) recorder() ports.IncidentRecorder {
	if d.Recorder != nil {
		return d.Recorder
	}
	return d.Incidents
}
