// Package csvstore keeps incident reports in an append-only CSV file with
// the columns lat,lng,timestamp,id.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// TimestampLayout is a naive UTC ISO-8601 timestamp with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.999999"

var header = []string{"lat", "lng", "timestamp", "id"}

// IncidentStore implements ports.IncidentRepository over a CSV file.
type IncidentStore struct {
	mu   sync.Mutex
	path string
}

// NewIncidentStore returns a store backed by the file at path. The file is
// created on the first insert.
func NewIncidentStore(path string) *IncidentStore {
	return &IncidentStore{path: path}
}

// Insert appends one row, writing the header first if the file is new.
func (s *IncidentStore) Insert(ctx context.Context, inc *domain.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open incidents csv: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat incidents csv: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		strconv.FormatFloat(inc.Location.Lat, 'f', -1, 64),
		strconv.FormatFloat(inc.Location.Lon, 'f', -1, 64),
		inc.ReportedAt.UTC().Format(TimestampLayout),
		inc.ID,
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// List returns incidents newest first. Rows without an id column get a
// positional one ("csv-<row>").
func (s *IncidentStore) List(ctx context.Context, offset, limit int) ([]domain.Incident, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	out := make([]domain.Incident, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Count returns the number of stored incidents.
func (s *IncidentStore) Count(ctx context.Context) (int, error) {
	all, err := s.readAll()
	return len(all), err
}

func (s *IncidentStore) readAll() ([]domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open incidents csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []domain.Incident
	for row := 0; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read incidents csv: %w", err)
		}
		if row == 0 && len(rec) > 0 && rec[0] == "lat" {
			continue
		}
		inc, err := parseRecord(rec, row)
		if err != nil {
			return nil, fmt.Errorf("incidents csv row %d: %w", row+1, err)
		}
		out = append(out, inc)
	}
	return out, nil
}

func parseRecord(rec []string, row int) (domain.Incident, error) {
	if len(rec) < 3 {
		return domain.Incident{}, fmt.Errorf("expected at least 3 columns, got %d", len(rec))
	}
	lat, err := strconv.ParseFloat(rec[0], 64)
	if err != nil {
		return domain.Incident{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return domain.Incident{}, fmt.Errorf("lng: %w", err)
	}
	at, err := parseTimestamp(rec[2])
	if err != nil {
		return domain.Incident{}, err
	}
	id := fmt.Sprintf("csv-%d", row)
	if len(rec) > 3 && rec[3] != "" {
		id = rec[3]
	}
	return domain.Incident{ID: id, Location: domain.GeoPoint{Lat: lat, Lon: lon}, ReportedAt: at}, nil
}

func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not ISO-8601", v)
}
