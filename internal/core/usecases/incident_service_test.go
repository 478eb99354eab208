package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

func TestIncidentService_Record(t *testing.T) {
	var stored *domain.Incident
	repo := &mockIncidentRepo{
		insertFn: func(ctx context.Context, incident *domain.Incident) error {
			stored = incident
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewIncidentService(repo, pub, "postgres")

	before := time.Now().UTC()
	incident, err := svc.Record(context.Background(), domain.GeoPoint{Lat: 33.6846, Lon: -117.8265})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if incident.ID == "" {
		t.Error("expected an ID")
	}
	if incident.ReportedAt.Location() != time.UTC || incident.ReportedAt.Before(before.Add(-time.Second)) {
		t.Errorf("expected a current UTC timestamp, got %v", incident.ReportedAt)
	}
	if stored != incident {
		t.Error("incident was not stored")
	}
	if len(pub.published) != 1 || pub.published[0].ID != incident.ID {
		t.Error("incident was not published")
	}
}

func TestIncidentService_Record_InvalidLocation(t *testing.T) {
	called := false
	repo := &mockIncidentRepo{
		insertFn: func(ctx context.Context, incident *domain.Incident) error {
			called = true
			return nil
		},
	}
	svc := usecases.NewIncidentService(repo, nil, "csv")

	_, err := svc.Record(context.Background(), domain.GeoPoint{Lat: 120, Lon: 0})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	if called {
		t.Error("repo should not be called")
	}
}

func TestIncidentService_Record_StoreError(t *testing.T) {
	repo := &mockIncidentRepo{
		insertFn: func(ctx context.Context, incident *domain.Incident) error {
			return errors.New("disk full")
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewIncidentService(repo, pub, "csv")

	if _, err := svc.Record(context.Background(), domain.GeoPoint{Lat: 33.6, Lon: -117.8}); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.published) != 0 {
		t.Error("nothing should be published when the insert fails")
	}
}

func TestIncidentService_Record_PublishErrorIgnored(t *testing.T) {
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, incident *domain.Incident) error {
			return errors.New("nats: no responders available")
		},
	}
	svc := usecases.NewIncidentService(&mockIncidentRepo{}, pub, "postgres")

	if _, err := svc.Record(context.Background(), domain.GeoPoint{Lat: 33.6, Lon: -117.8}); err != nil {
		t.Fatalf("publish failure should not fail the report: %v", err)
	}
}

func TestIncidentService_List_ClampsPaging(t *testing.T) {
	repo := &mockIncidentRepo{
		listFn: func(ctx context.Context, offset, limit int) ([]domain.Incident, error) {
			if offset != 0 || limit != 500 {
				t.Errorf("expected offset 0 limit 500, got %d/%d", offset, limit)
			}
			return []domain.Incident{{ID: "a"}}, nil
		},
		countFn: func(ctx context.Context) (int, error) { return 1, nil },
	}
	svc := usecases.NewIncidentService(repo, nil, "postgres")

	items, total, err := svc.List(context.Background(), -3, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || total != 1 {
		t.Errorf("unexpected page %v total %d", items, total)
	}
}
