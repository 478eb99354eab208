package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

var (
	irvine   = domain.GeoPoint{Lat: 33.7, Lon: -117.8}
	newport  = domain.GeoPoint{Lat: 33.6, Lon: -117.9}
	carPath  = "33.7,-117.8;33.65,-117.85;33.6,-117.9"
	walkPath = "33.7,-117.8;33.6,-117.9"
)

func candidates(distance, duration float64, geometry string) domain.RouteAttempt {
	return domain.RouteAttempt{Candidates: []domain.RouteCandidate{
		{Distance: distance, Duration: duration, Geometry: geometry},
	}}
}

func rejected(msg string) domain.RouteAttempt {
	return domain.RouteAttempt{Rejection: &domain.Rejection{Status: 400, Code: 2003, Message: msg}}
}

func newTestRouteService(t *testing.T, geo *mockGeocoder, provider *mockProvider, opts usecases.RouteOptions) *usecases.RouteService {
	t.Helper()
	avoid, err := usecases.NewAvoidanceAssembler(orangeCounty, usecases.AvoidanceOptions{})
	if err != nil {
		t.Fatalf("assembler: %v", err)
	}
	if geo == nil {
		geo = &mockGeocoder{}
	}
	return usecases.NewRouteService(
		usecases.NewCoordinateResolver(geo, nil, 0),
		avoid,
		provider,
		fakeCodec{},
		opts,
	)
}

func TestRouteService_AvoidedRoute(t *testing.T) {
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			if req.Mode == domain.ModeWalking {
				if req.Avoid != nil {
					t.Error("walking request must not carry avoidance")
				}
				return candidates(14000, 10000, walkPath), nil
			}
			if req.Avoid == nil || len(req.Avoid.Zones) != 3 {
				t.Errorf("expected avoided driving request with 3 zones, got %+v", req.Avoid)
			}
			return candidates(15000, 1200, carPath), nil
		},
	}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{})

	route, err := svc.Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !route.AvoidanceApplied {
		t.Error("expected avoidance to be applied")
	}
	if route.AvoidanceRejection != "" {
		t.Errorf("unexpected rejection %q", route.AvoidanceRejection)
	}
	if route.Start != irvine || route.End != newport {
		t.Errorf("unexpected endpoints %+v -> %+v", route.Start, route.End)
	}
	if route.Car.Distance != 15000 || route.Car.Duration != 1200 {
		t.Errorf("unexpected car metrics %+v", route.Car)
	}
	if len(route.Car.Path) != 3 || len(route.Walk.Path) != 2 {
		t.Errorf("unexpected path lengths car=%d walk=%d", len(route.Car.Path), len(route.Walk.Path))
	}
	if got := len(provider.snapshot()); got != 2 {
		t.Errorf("expected 2 provider calls, got %d", got)
	}
}

func TestRouteService_FallbackOnRejection(t *testing.T) {
	const fallbackPath = "33.7,-117.8;33.69,-117.81;33.6,-117.9"
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			switch {
			case req.Mode == domain.ModeWalking:
				return candidates(14000, 10000, walkPath), nil
			case req.Avoid != nil:
				return rejected("Route could not be found - avoid polygons too large"), nil
			default:
				return candidates(16000, 1300, fallbackPath), nil
			}
		},
	}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{})

	route, err := svc.Route(context.Background(), irvine, newport, usecases.Assemble(nil))
	if err == nil && route.AvoidanceApplied {
		t.Fatal("empty region should not apply avoidance")
	}

	avoid, _ := usecases.NewAvoidanceAssembler(orangeCounty, usecases.AvoidanceOptions{})
	route, err = svc.Route(context.Background(), irvine, newport, avoid.Region())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.AvoidanceApplied {
		t.Error("avoidance should not be reported as applied after fallback")
	}
	if route.AvoidanceRejection != "Route could not be found - avoid polygons too large" {
		t.Errorf("unexpected rejection %q", route.AvoidanceRejection)
	}
	if route.Car.Distance != 16000 {
		t.Errorf("expected fallback distance, got %v", route.Car.Distance)
	}
	if len(route.Car.Path) != 3 || route.Car.Path[1] != (domain.GeoPoint{Lat: 33.69, Lon: -117.81}) {
		t.Errorf("expected fallback geometry, got %+v", route.Car.Path)
	}
}

func TestRouteService_FallbackFailureKeepsRejectionMessage(t *testing.T) {
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			if req.Avoid != nil {
				return rejected("Request parameters exceed the server configuration limits."), nil
			}
			if req.Mode == domain.ModeDriving {
				return domain.RouteAttempt{}, errors.New("dial tcp: i/o timeout")
			}
			return candidates(1, 1, walkPath), nil
		},
	}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{})

	_, err := svc.Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if !errors.Is(err, domain.ErrDrivingRouteFailure) {
		t.Fatalf("expected driving routing_failure, got %v", err)
	}
	if err.Error() != "Request parameters exceed the server configuration limits." {
		t.Errorf("expected original rejection message, got %q", err.Error())
	}
	for _, req := range provider.snapshot() {
		if req.Mode == domain.ModeWalking {
			t.Error("walking should not be requested after a driving failure")
		}
	}
}

func TestRouteService_FallbackWithoutCandidates(t *testing.T) {
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			if req.Avoid != nil {
				return rejected("avoid polygons too large"), nil
			}
			return domain.RouteAttempt{}, nil
		},
	}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{})

	_, err := svc.Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if !errors.Is(err, domain.ErrRoutingFailure) || err.Error() != "avoid polygons too large" {
		t.Fatalf("expected routing_failure with rejection message, got %v", err)
	}
}

func TestRouteService_TransportErrorDoesNotFallBack(t *testing.T) {
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			return domain.RouteAttempt{}, errors.New("connection reset")
		},
	}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{})

	_, err := svc.Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if !errors.Is(err, domain.ErrDrivingRouteFailure) {
		t.Fatalf("expected driving routing_failure, got %v", err)
	}
	if err.Error() != "Unexpected: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if got := len(provider.snapshot()); got != 1 {
		t.Errorf("expected a single provider call, got %d", got)
	}
}

func TestRouteService_NoDrivingCandidates(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{})

	_, err := svc.Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if !errors.Is(err, domain.ErrDrivingRouteNotFound) {
		t.Fatalf("expected driving no_route_found, got %v", err)
	}
	if err.Error() != "No driving route found." {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRouteService_WalkingFailure(t *testing.T) {
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			if req.Mode == domain.ModeWalking {
				return domain.RouteAttempt{}, errors.New("503 Service Unavailable")
			}
			return candidates(15000, 1200, carPath), nil
		},
	}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{})

	route, err := svc.Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if route != nil {
		t.Error("partial result returned")
	}
	if !errors.Is(err, domain.ErrWalkingRouteFailure) {
		t.Fatalf("expected walking routing_failure, got %v", err)
	}
	if err.Error() != "Walking route failed: 503 Service Unavailable" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRouteService_NoWalkingCandidates(t *testing.T) {
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			if req.Mode == domain.ModeWalking {
				return domain.RouteAttempt{}, nil
			}
			return candidates(15000, 1200, carPath), nil
		},
	}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{})

	_, err := svc.Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if !errors.Is(err, domain.ErrWalkingRouteNotFound) {
		t.Fatalf("expected walking no_route_found, got %v", err)
	}
}

func TestRouteService_ParallelWalkReportsDrivingFirst(t *testing.T) {
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			if req.Mode == domain.ModeWalking {
				return domain.RouteAttempt{}, errors.New("walk down")
			}
			return domain.RouteAttempt{}, errors.New("drive down")
		},
	}
	svc := newTestRouteService(t, nil, provider, usecases.RouteOptions{ParallelWalk: true})

	_, err := svc.Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if !errors.Is(err, domain.ErrDrivingRouteFailure) {
		t.Fatalf("expected the driving error, got %v", err)
	}
}

func TestRouteService_ParallelWalkSameResult(t *testing.T) {
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			if req.Mode == domain.ModeWalking {
				return candidates(14000, 10000, walkPath), nil
			}
			return candidates(15000, 1200, carPath), nil
		},
	}
	sequential, err := newTestRouteService(t, nil, provider, usecases.RouteOptions{}).
		Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	parallel, err := newTestRouteService(t, nil, provider, usecases.RouteOptions{ParallelWalk: true}).
		Plan(context.Background(), "33.7,-117.8", "33.6,-117.9")
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if sequential.Car.Distance != parallel.Car.Distance || sequential.Walk.Distance != parallel.Walk.Distance {
		t.Errorf("results differ: %+v vs %+v", sequential, parallel)
	}
}

func TestRouteService_EmptyEndAddress(t *testing.T) {
	geo := &mockGeocoder{}
	provider := &mockProvider{}
	svc := newTestRouteService(t, geo, provider, usecases.RouteOptions{})

	_, err := svc.Plan(context.Background(), "34.0,-118.2", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	if err.Error() != "Both addresses are required." {
		t.Errorf("unexpected message %q", err.Error())
	}
	if geo.callCount() != 0 || len(provider.snapshot()) != 0 {
		t.Error("no collaborator should be called")
	}
}

func TestRouteService_StartNoMatchStopsBeforeRouting(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestRouteService(t, &mockGeocoder{}, provider, usecases.RouteOptions{})

	_, err := svc.Plan(context.Background(), "nowhere", "33.6,-117.9")
	if !errors.Is(err, domain.ErrNoMatch) || err.Error() != "Could not geocode start address." {
		t.Fatalf("expected start no_match, got %v", err)
	}
	if len(provider.snapshot()) != 0 {
		t.Error("provider should not be called")
	}
}

func TestRouteService_CityHallEndToEnd(t *testing.T) {
	cityHall := domain.GeoPoint{Lat: 34.0537, Lon: -118.2428}
	geo := &mockGeocoder{
		searchFn: func(ctx context.Context, text string) ([]domain.GeocodeCandidate, error) {
			return []domain.GeocodeCandidate{{Location: cityHall, Label: "Los Angeles City Hall"}}, nil
		},
	}
	provider := &mockProvider{
		directionsFn: func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
			if req.Mode == domain.ModeDriving {
				if req.Avoid == nil || len(req.Avoid.Zones) != 1 {
					t.Fatalf("expected one avoided zone, got %+v", req.Avoid)
				}
				ring := req.Avoid.Zones[0].Ring
				if len(ring) < 33 || ring[0] != ring[len(ring)-1] {
					t.Errorf("avoidance ring not closed: %d vertices", len(ring))
				}
				return candidates(7300, 900, "34.0,-118.2;34.02,-118.22;34.0537,-118.2428"), nil
			}
			return candidates(6800, 5400, "34.0,-118.2;34.0537,-118.2428"), nil
		},
	}
	avoid, err := usecases.NewAvoidanceAssembler(
		[]domain.UnsafeZone{{Center: domain.GeoPoint{Lat: 34.0522, Lon: -118.2437}}},
		usecases.AvoidanceOptions{},
	)
	if err != nil {
		t.Fatalf("assembler: %v", err)
	}
	svc := usecases.NewRouteService(usecases.NewCoordinateResolver(geo, nil, 0), avoid, provider, fakeCodec{}, usecases.RouteOptions{})

	route, err := svc.Plan(context.Background(), "34.0,-118.2", "Los Angeles City Hall")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geo.callCount() != 1 || geo.calls[0] != "Los Angeles City Hall" {
		t.Errorf("expected only the end to be geocoded, got %v", geo.calls)
	}
	if route.Start != (domain.GeoPoint{Lat: 34.0, Lon: -118.2}) || route.End != cityHall {
		t.Errorf("unexpected endpoints %+v -> %+v", route.Start, route.End)
	}
	if route.Car.Distance <= 0 || route.Car.Duration <= 0 {
		t.Errorf("expected positive driving metrics, got %+v", route.Car)
	}
	path := domain.ToLatLngPath(route.Car.Path)
	if len(path) == 0 || path[0] != (domain.LatLng{34.0, -118.2}) {
		t.Errorf("expected lat-first path starting at the origin, got %v", path)
	}
}
