//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handler "github.com/samirrijal/saferoute/internal/adapters/http"
	"github.com/samirrijal/saferoute/internal/adapters/postgres"
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/usecases"
	"github.com/samirrijal/saferoute/internal/pkg/config"
)

// setupTestDB connects to the database named by the SAFEROUTE_DATABASE_* env.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("saferoute-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// setupTestDeps wires the postgres repos with mocked provider and geocoder.
func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	deps, _ := makeDeps(t)
	deps.Incidents = usecases.NewIncidentService(postgres.NewIncidentRepo(db), nil, "postgres")
	deps.DB = db
	return deps
}

func TestReportAndListIncidents_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupTestDeps(t, db))

	resp, err := postJSON(app, "/v1/incidents", `{"lat":33.6846,"lng":-117.8265}`)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.Status != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.Status, resp.Body)
	}
	var created domain.Incident
	if err := json.Unmarshal(resp.Body, &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	list, err := app.Test(httptest.NewRequest("GET", "/v1/incidents?limit=5", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var page struct {
		Data       []domain.Incident  `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(list.Body).Decode(&page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if page.Pagination.Total < 1 || len(page.Data) == 0 {
		t.Fatalf("expected at least one incident, got %+v", page.Pagination)
	}
	if page.Data[0].ID != created.ID {
		t.Errorf("newest incident should be %s, got %s", created.ID, page.Data[0].ID)
	}
	if page.Data[0].Location != created.Location {
		t.Errorf("location round trip: got %+v, want %+v", page.Data[0].Location, created.Location)
	}
}

func TestZoneRepo_ReplaceAndList_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	repo := postgres.NewZoneRepo(db)
	ctx := context.Background()

	zones := []domain.UnsafeZone{
		{Center: domain.GeoPoint{Lat: 33.6846, Lon: -117.8265}, Label: "first"},
		{Center: domain.GeoPoint{Lat: 33.7455, Lon: -117.8677}, Label: "second"},
	}
	n, err := repo.ReplaceUnsafeZones(ctx, zones)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	got, err := repo.ListUnsafeZones(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Label != "first" || got[1].Label != "second" {
		t.Errorf("unexpected zones %+v", got)
	}
}

func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	app := setupApp(setupTestDeps(t, setupTestDB(t)))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Checks["database"] != "ok" || !strings.HasPrefix(body.Status, "ready") {
		t.Errorf("unexpected readiness %+v", body)
	}
}
