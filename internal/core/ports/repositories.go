package ports

import (
	"context"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// IncidentRepository persists incident reports. Records are append-only.
type IncidentRepository interface {
	Insert(ctx context.Context, incident *domain.Incident) error
	List(ctx context.Context, offset, limit int) ([]domain.Incident, error)
	Count(ctx context.Context) (int, error)
}

// UnsafeZoneSource supplies the reference list of unsafe zones.
// It is read once at start-up; the list is never mutated afterwards.
type UnsafeZoneSource interface {
	ListUnsafeZones(ctx context.Context) ([]domain.UnsafeZone, error)
}

// UnsafeZoneWriter replaces the stored unsafe-zone list (used by the loader).
type UnsafeZoneWriter interface {
	ReplaceUnsafeZones(ctx context.Context, zones []domain.UnsafeZone) (int64, error)
}
