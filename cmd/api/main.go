package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/saferoute/internal/adapters/csvstore"
	"github.com/samirrijal/saferoute/internal/adapters/http"
	natsadapter "github.com/samirrijal/saferoute/internal/adapters/nats"
	"github.com/samirrijal/saferoute/internal/adapters/openrouteservice"
	"github.com/samirrijal/saferoute/internal/adapters/postgres"
	"github.com/samirrijal/saferoute/internal/adapters/valkey"
	"github.com/samirrijal/saferoute/internal/adapters/zonefile"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/core/usecases"
	"github.com/samirrijal/saferoute/internal/pkg/config"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
	"github.com/samirrijal/saferoute/internal/pkg/telemetry"
	"github.com/samirrijal/saferoute/internal/workflows"
)

func main() {
	cfg, err := config.Load("saferoute-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database, only when something is stored there
	var db *postgres.DB
	if cfg.Incidents.Store == "postgres" || cfg.Avoidance.ZonesSource == "database" {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolMetrics(ctx, 15*time.Second)
	}

	// Unsafe zones and the avoidance region, built once
	var zoneSource ports.UnsafeZoneSource = zonefile.NewSource(cfg.Avoidance.ZonesFile)
	if cfg.Avoidance.ZonesSource == "database" {
		zoneSource = postgres.NewZoneRepo(db)
	}
	zones, err := zoneSource.ListUnsafeZones(ctx)
	if err != nil {
		log.Fatalf("unsafe zones: %v", err)
	}
	frames, err := geospatial.NewFrameSelector(cfg.Avoidance.Projection.Mode, cfg.Avoidance.Projection.UTMZone, cfg.Avoidance.Projection.North)
	if err != nil {
		log.Fatalf("projection: %v", err)
	}
	avoidance, err := usecases.NewAvoidanceAssembler(zones, usecases.AvoidanceOptions{
		RadiusMeters: cfg.Avoidance.RadiusMeters,
		Segments:     cfg.Avoidance.Segments,
		Frames:       frames,
	})
	if err != nil {
		log.Fatalf("avoidance region: %v", err)
	}
	metrics.AvoidanceZones.Set(float64(len(zones)))
	slog.Info("avoidance region ready",
		"zones", len(zones),
		"radius_m", avoidance.RadiusMeters(),
		"source", cfg.Avoidance.ZonesSource,
		"projection", cfg.Avoidance.Projection.Mode,
	)

	// Cache
	var geocodeCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, geocoding uncached", "error", err)
	} else {
		defer cache.Close()
		geocodeCache = cache
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, incidents will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Incident store
	var incidentRepo ports.IncidentRepository
	switch cfg.Incidents.Store {
	case "csv":
		incidentRepo = csvstore.NewIncidentStore(cfg.Incidents.CSVPath)
	default:
		incidentRepo = postgres.NewIncidentRepo(db)
	}

	// Use cases
	ors := openrouteservice.NewClient(cfg.Routing.BaseURL, cfg.Routing.APIKey, cfg.Routing.Timeout)
	resolver := usecases.NewCoordinateResolver(ors, geocodeCache, cfg.Geocoding.CacheTTL)
	routeSvc := usecases.NewRouteService(resolver, avoidance, ors, openrouteservice.PolylineCodec{}, usecases.RouteOptions{
		ParallelWalk: cfg.Routing.ParallelWalk,
	})
	incidentSvc := usecases.NewIncidentService(incidentRepo, publisher, cfg.Incidents.Store)

	var recorder ports.IncidentRecorder = incidentSvc
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer tc.Close()
		recorder = workflows.NewDispatcher(tc, incidentSvc, cfg.Temporal.TaskQueue)
		slog.Info("incident reports go through temporal", "task_queue", cfg.Temporal.TaskQueue)
	}

	deps := &http.Dependencies{
		Routes:       routeSvc,
		Avoidance:    avoidance,
		Incidents:    incidentSvc,
		Recorder:     recorder,
		RouteTimeout: 3*cfg.Routing.Timeout + 5*time.Second,
		DB:           db,
		Cache:        cache,
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "SafeRoute API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps, http.RouterOptions{})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
