package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// ZoneRepo implements ports.UnsafeZoneSource and ports.UnsafeZoneWriter.
type ZoneRepo struct {
	db *DB
}

func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

// ListUnsafeZones returns the zones in insertion order.
func (r *ZoneRepo) ListUnsafeZones(ctx context.Context) ([]domain.UnsafeZone, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT ST_Y(center::geometry), ST_X(center::geometry), COALESCE(label, '')
		FROM unsafe_zones
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.UnsafeZone
	for rows.Next() {
		var z domain.UnsafeZone
		if err := rows.Scan(&z.Center.Lat, &z.Center.Lon, &z.Label); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// ReplaceUnsafeZones swaps the stored list for zones in one transaction.
func (r *ZoneRepo) ReplaceUnsafeZones(ctx context.Context, zones []domain.UnsafeZone) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM unsafe_zones`); err != nil {
		return 0, fmt.Errorf("clear zones: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE unsafe_zones_staging (
			position INT, lat DOUBLE PRECISION, lon DOUBLE PRECISION, label TEXT
		) ON COMMIT DROP
	`); err != nil {
		return 0, fmt.Errorf("create staging: %w", err)
	}

	rows := make([][]interface{}, len(zones))
	for i, z := range zones {
		rows[i] = []interface{}{i, z.Center.Lat, z.Center.Lon, z.Label}
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"unsafe_zones_staging"},
		[]string{"position", "lat", "lon", "label"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy zones: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO unsafe_zones (position, center, label)
		SELECT position, ST_SetSRID(ST_MakePoint(lon, lat), 4326)::geography, NULLIF(label, '')
		FROM unsafe_zones_staging
	`); err != nil {
		return 0, fmt.Errorf("promote zones: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
