package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// IncidentService handles incident reports.
type IncidentService struct {
	repo      ports.IncidentRepository
	publisher ports.EventPublisher
	store     string
	now       func() time.Time
}

// NewIncidentService creates a new IncidentService. publisher may be nil.
// store labels the metrics ("postgres", "csv").
func NewIncidentService(repo ports.IncidentRepository, publisher ports.EventPublisher, store string) *IncidentService {
	return &IncidentService{
		repo:      repo,
		publisher: publisher,
		store:     store,
		now:       time.Now,
	}
}

// NewIncident stamps a report with a fresh ID and the current UTC time.
func (s *IncidentService) NewIncident(location domain.GeoPoint) (*domain.Incident, error) {
	if err := location.Validate(); err != nil {
		return nil, domain.InvalidInput(err.Error())
	}
	return &domain.Incident{
		ID:         uuid.NewString(),
		Location:   location,
		ReportedAt: s.now().UTC(),
	}, nil
}

// Record stores a report and announces it. Publishing is best-effort: a
// stored incident is never rolled back because the broker is down.
func (s *IncidentService) Record(ctx context.Context, location domain.GeoPoint) (*domain.Incident, error) {
	incident, err := s.NewIncident(location)
	if err != nil {
		return nil, err
	}
	if err := s.Store(ctx, incident); err != nil {
		return nil, err
	}
	if err := s.Publish(ctx, incident); err != nil {
		logging.FromContext(ctx).Warn("incident publish failed", "incident_id", incident.ID, "error", err)
	}
	return incident, nil
}

// Store persists an already stamped incident.
func (s *IncidentService) Store(ctx context.Context, incident *domain.Incident) error {
	if err := s.repo.Insert(ctx, incident); err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	metrics.IncidentsReported.WithLabelValues(s.store).Inc()
	return nil
}

// Publish emits the incident event if a publisher is configured.
func (s *IncidentService) Publish(ctx context.Context, incident *domain.Incident) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishIncident(ctx, incident)
}

// List returns a page of incidents, newest first, and the total count.
func (s *IncidentService) List(ctx context.Context, offset, limit int) ([]domain.Incident, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count incidents: %w", err)
	}
	return items, total, nil
}
