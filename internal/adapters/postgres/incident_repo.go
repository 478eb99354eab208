package postgres

import (
	"context"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// IncidentRepo implements ports.IncidentRepository.
type IncidentRepo struct {
	db *DB
}

func NewIncidentRepo(db *DB) *IncidentRepo {
	return &IncidentRepo{db: db}
}

// Insert appends a report. Re-inserting the same ID is a no-op so workflow
// retries stay idempotent.
func (r *IncidentRepo) Insert(ctx context.Context, inc *domain.Incident) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO incidents (id, location, reported_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
		ON CONFLICT (id) DO NOTHING
	`, inc.ID, inc.Location.Lon, inc.Location.Lat, inc.ReportedAt)
	return err
}

// List returns incidents newest first.
func (r *IncidentRepo) List(ctx context.Context, offset, limit int) ([]domain.Incident, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       reported_at
		FROM incidents
		ORDER BY reported_at DESC, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Incident
	for rows.Next() {
		var inc domain.Incident
		if err := rows.Scan(&inc.ID, &inc.Location.Lat, &inc.Location.Lon, &inc.ReportedAt); err != nil {
			return nil, err
		}
		inc.ReportedAt = inc.ReportedAt.UTC()
		out = append(out, inc)
	}
	return out, rows.Err()
}

func (r *IncidentRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM incidents`).Scan(&n)
	return n, err
}
