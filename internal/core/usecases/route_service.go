package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
	"github.com/samirrijal/saferoute/internal/pkg/telemetry"
)

// RouteOptions tunes the orchestrator.
type RouteOptions struct {
	// ParallelWalk issues the walking request concurrently with the driving
	// chain. Output is identical either way.
	ParallelWalk bool
}

// RouteService computes a driving route that avoids unsafe zones when the
// provider allows it, plus an unconstrained walking route.
type RouteService struct {
	resolver  *CoordinateResolver
	avoidance *AvoidanceAssembler
	provider  ports.RoutingProvider
	codec     ports.PathCodec
	opts      RouteOptions
}

// NewRouteService creates a new RouteService.
func NewRouteService(
	resolver *CoordinateResolver,
	avoidance *AvoidanceAssembler,
	provider ports.RoutingProvider,
	codec ports.PathCodec,
	opts RouteOptions,
) *RouteService {
	return &RouteService{
		resolver:  resolver,
		avoidance: avoidance,
		provider:  provider,
		codec:     codec,
		opts:      opts,
	}
}

// Plan resolves both raw inputs and routes between them using the
// configured avoidance region.
func (s *RouteService) Plan(ctx context.Context, start, end string) (*domain.SafeRoute, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		metrics.RouteRequests.WithLabelValues(string(domain.KindInvalidInput)).Inc()
		return nil, domain.InvalidInput("Both addresses are required.")
	}

	from, err := s.resolver.ResolveAs(ctx, "start", domain.ParseLocationInput(start))
	if err != nil {
		metrics.RouteRequests.WithLabelValues(string(domain.KindOf(err))).Inc()
		return nil, err
	}
	to, err := s.resolver.ResolveAs(ctx, "end", domain.ParseLocationInput(end))
	if err != nil {
		metrics.RouteRequests.WithLabelValues(string(domain.KindOf(err))).Inc()
		return nil, err
	}

	var region domain.AvoidanceRegion
	if s.avoidance != nil {
		region = s.avoidance.Region()
	}
	return s.Route(ctx, from, to, region)
}

// Route computes the driving and walking routes between two coordinates.
// Either both routes are returned or an error is; never half a result.
func (s *RouteService) Route(ctx context.Context, start, end domain.GeoPoint, region domain.AvoidanceRegion) (*domain.SafeRoute, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "RouteService.Route")
	defer span.End()
	span.SetAttributes(attribute.Int(telemetry.AttrAvoidZones, len(region.Zones)))

	for _, p := range []domain.GeoPoint{start, end} {
		if err := p.Validate(); err != nil {
			metrics.RouteRequests.WithLabelValues(string(domain.KindInvalidInput)).Inc()
			return nil, domain.InvalidInput(err.Error())
		}
	}

	var (
		car     drivingOutcome
		walk    domain.RouteCandidate
		carErr  error
		walkErr error
	)
	if s.opts.ParallelWalk {
		// Plain Group: neither call cancels the other.
		var g errgroup.Group
		g.Go(func() error {
			car, carErr = s.drive(ctx, start, end, region)
			return carErr
		})
		g.Go(func() error {
			walk, walkErr = s.walk(ctx, start, end)
			return walkErr
		})
		_ = g.Wait()
	} else {
		car, carErr = s.drive(ctx, start, end, region)
		if carErr == nil {
			walk, walkErr = s.walk(ctx, start, end)
		}
	}

	if err := firstError(carErr, walkErr); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RouteRequests.WithLabelValues(string(domain.KindOf(err))).Inc()
		return nil, err
	}

	carPath, err := s.codec.Decode(car.candidate.Geometry)
	if err != nil {
		return nil, s.fail(span, domain.RoutingFailure(domain.ModeDriving, domain.UnexpectedPrefix+err.Error(), err))
	}
	walkPath, err := s.codec.Decode(walk.Geometry)
	if err != nil {
		return nil, s.fail(span, domain.RoutingFailure(domain.ModeWalking, "Walking route failed: "+err.Error(), err))
	}

	span.SetAttributes(attribute.Bool(telemetry.AttrAvoidApplied, car.applied))
	switch {
	case car.applied:
		metrics.RouteRequests.WithLabelValues("avoided").Inc()
	case car.rejection != "":
		metrics.RouteRequests.WithLabelValues("fallback").Inc()
	default:
		metrics.RouteRequests.WithLabelValues("unconstrained").Inc()
	}

	return &domain.SafeRoute{
		Start: start,
		End:   end,
		Car: domain.RouteResult{
			Path:     carPath,
			Distance: car.candidate.Distance,
			Duration: car.candidate.Duration,
		},
		Walk: domain.RouteResult{
			Path:     walkPath,
			Distance: walk.Distance,
			Duration: walk.Duration,
		},
		AvoidanceApplied:   car.applied,
		AvoidanceRejection: car.rejection,
	}, nil
}

type drivingOutcome struct {
	candidate domain.RouteCandidate
	applied   bool
	rejection string
}

// drive requests the avoided driving route and falls back to the plain one
// when the provider rejects the constraint. If the fallback fails too the
// original rejection reason is reported.
func (s *RouteService) drive(ctx context.Context, start, end domain.GeoPoint, region domain.AvoidanceRegion) (drivingOutcome, error) {
	req := domain.RouteRequest{Start: start, End: end, Mode: domain.ModeDriving}
	if !region.IsEmpty() {
		req.Avoid = &region
	}

	attempt, err := s.directions(ctx, req)
	if err != nil {
		return drivingOutcome{}, domain.RoutingFailure(domain.ModeDriving, domain.UnexpectedPrefix+err.Error(), err)
	}
	if attempt.Rejection == nil {
		if len(attempt.Candidates) == 0 {
			return drivingOutcome{}, domain.NoRouteFound(domain.ModeDriving, "No driving route found.")
		}
		return drivingOutcome{candidate: attempt.Candidates[0], applied: req.Avoid != nil}, nil
	}

	reason := attempt.Rejection.Message
	if req.Avoid == nil {
		return drivingOutcome{}, domain.RoutingFailure(domain.ModeDriving, reason, nil)
	}

	logging.FromContext(ctx).Warn("avoidance rejected, retrying without it",
		"reason", reason,
		"status", attempt.Rejection.Status,
		"code", attempt.Rejection.Code,
		"zones", len(region.Zones),
	)

	plain, err := s.directions(ctx, domain.RouteRequest{Start: start, End: end, Mode: domain.ModeDriving})
	switch {
	case err != nil:
		return drivingOutcome{}, domain.RoutingFailure(domain.ModeDriving, reason, err)
	case plain.Rejection != nil:
		return drivingOutcome{}, domain.RoutingFailure(domain.ModeDriving, reason,
			fmt.Errorf("fallback rejected: %s", plain.Rejection.Message))
	case len(plain.Candidates) == 0:
		return drivingOutcome{}, domain.RoutingFailure(domain.ModeDriving, reason, nil)
	}

	metrics.AvoidanceFallbacks.Inc()
	return drivingOutcome{candidate: plain.Candidates[0], rejection: reason}, nil
}

// walk requests the walking route. It never carries avoidance.
func (s *RouteService) walk(ctx context.Context, start, end domain.GeoPoint) (domain.RouteCandidate, error) {
	attempt, err := s.directions(ctx, domain.RouteRequest{Start: start, End: end, Mode: domain.ModeWalking})
	if err != nil {
		return domain.RouteCandidate{}, domain.RoutingFailure(domain.ModeWalking, "Walking route failed: "+err.Error(), err)
	}
	if attempt.Rejection != nil {
		return domain.RouteCandidate{}, domain.RoutingFailure(domain.ModeWalking, "Walking route failed: "+attempt.Rejection.Message, nil)
	}
	if len(attempt.Candidates) == 0 {
		return domain.RouteCandidate{}, domain.NoRouteFound(domain.ModeWalking, "No walking route found.")
	}
	return attempt.Candidates[0], nil
}

func (s *RouteService) directions(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "RoutingProvider.Directions")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrTravelMode, string(req.Mode)),
		attribute.Bool(telemetry.AttrAvoidApplied, req.Avoid != nil),
	)

	started := time.Now()
	attempt, err := s.provider.Directions(ctx, req)
	metrics.ObserveProvider(string(req.Mode), req.Avoid != nil, started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return attempt, err
	}
	if attempt.Rejection != nil {
		span.SetAttributes(attribute.String(telemetry.AttrRejection, attempt.Rejection.Message))
	}
	span.SetAttributes(attribute.Int(telemetry.AttrCandidateCount, len(attempt.Candidates)))
	return attempt, nil
}

func (s *RouteService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.RouteRequests.WithLabelValues(string(domain.KindOf(err))).Inc()
	return err
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
