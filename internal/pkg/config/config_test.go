package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("saferoute-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Avoidance.RadiusMeters != 200 {
		t.Errorf("expected default radius 200, got %v", cfg.Avoidance.RadiusMeters)
	}
	if cfg.Avoidance.Projection.Mode != "fixed" || cfg.Avoidance.Projection.UTMZone != 11 || !cfg.Avoidance.Projection.North {
		t.Errorf("expected fixed UTM 11N projection, got %+v", cfg.Avoidance.Projection)
	}
	if cfg.Routing.Timeout != 20*time.Second {
		t.Errorf("expected 20s routing timeout, got %s", cfg.Routing.Timeout)
	}
	if cfg.Telemetry.ServiceName != "saferoute-test" {
		t.Errorf("expected service name from argument, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SAFEROUTE_ROUTING_API_KEY", "secret")
	t.Setenv("SAFEROUTE_AVOIDANCE_RADIUS_METERS", "350")
	t.Setenv("SAFEROUTE_AVOIDANCE_PROJECTION_MODE", "auto")

	cfg, err := Load("saferoute-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Routing.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.Routing.APIKey)
	}
	if cfg.Avoidance.RadiusMeters != 350 {
		t.Errorf("expected radius 350, got %v", cfg.Avoidance.RadiusMeters)
	}
	if cfg.Avoidance.Projection.Mode != "auto" {
		t.Errorf("expected auto projection, got %s", cfg.Avoidance.Projection.Mode)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: 0, ReadTimeout: 1, WriteTimeout: 1},
		Database:  DatabaseConfig{Port: 5432, Host: "localhost"},
		Routing:   RoutingConfig{BaseURL: "http://ors", Timeout: time.Second},
		Avoidance: AvoidanceConfig{RadiusMeters: -1, Segments: 8, ZonesSource: "file", ZonesFile: "z.yaml", Projection: ProjectionConfig{Mode: "fixed", UTMZone: 11}},
		Incidents: IncidentsConfig{Store: "csv", CSVPath: "incidents.csv"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "avoidance.radius_meters", "avoidance.segments"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_UnknownProjectionMode(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: 8080, ReadTimeout: 1, WriteTimeout: 1},
		Database:  DatabaseConfig{Port: 5432, Host: "localhost"},
		Routing:   RoutingConfig{BaseURL: "http://ors", Timeout: time.Second},
		Avoidance: AvoidanceConfig{RadiusMeters: 200, Segments: 64, ZonesSource: "file", ZonesFile: "z.yaml", Projection: ProjectionConfig{Mode: "mercator"}},
		Incidents: IncidentsConfig{Store: "postgres"},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "avoidance.projection.mode") {
		t.Fatalf("expected projection mode error, got %v", err)
	}
}
