package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/saferoute/internal/adapters/csvstore"
	natsadapter "github.com/samirrijal/saferoute/internal/adapters/nats"
	"github.com/samirrijal/saferoute/internal/adapters/postgres"
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/core/usecases"
	"github.com/samirrijal/saferoute/internal/pkg/config"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/workflows"
)

// archiveConsumer is the durable JetStream consumer of the CSV mirror.
const archiveConsumer = "saferoute-archive"

func main() {
	cfg, err := config.Load("saferoute-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if !cfg.Temporal.Enabled && cfg.Incidents.ArchivePath == "" {
		log.Fatal("nothing to do: enable temporal or set incidents.archive_path")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stopTemporal func()
	if cfg.Temporal.Enabled {
		stopTemporal = startIncidentWorker(ctx, cfg)
	}

	if cfg.Incidents.ArchivePath != "" {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer sub.Close()

		archive := csvstore.NewIncidentStore(cfg.Incidents.ArchivePath)
		err = sub.SubscribeIncidents(ctx, archiveConsumer, func(ctx context.Context, inc *domain.Incident) error {
			if err := archive.Insert(ctx, inc); err != nil {
				slog.Error("archive incident", "incident_id", inc.ID, "error", err)
				return err
			}
			slog.Debug("incident archived", "incident_id", inc.ID)
			return nil
		})
		if err != nil {
			log.Fatalf("subscribe incidents: %v", err)
		}
		slog.Info("archiving incidents", "path", cfg.Incidents.ArchivePath)
	}

	<-worker.InterruptCh()
	slog.Info("worker stopping")
	if stopTemporal != nil {
		stopTemporal()
	}
}

// startIncidentWorker registers the incident workflow and its activities and
// starts polling. The returned func stops the worker.
func startIncidentWorker(ctx context.Context, cfg *config.Config) func() {
	var repo ports.IncidentRepository
	switch cfg.Incidents.Store {
	case "csv":
		repo = csvstore.NewIncidentStore(cfg.Incidents.CSVPath)
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		repo = postgres.NewIncidentRepo(db)
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, incidents will not be published", "error", err)
	} else {
		publisher = pub
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.IncidentWorkflow)
	acts := &workflows.IncidentActivities{
		Incidents: usecases.NewIncidentService(repo, publisher, cfg.Incidents.Store),
	}
	w.RegisterActivityWithOptions(acts.StoreIncident, activity.RegisterOptions{Name: workflows.ActivityStoreIncident})
	w.RegisterActivityWithOptions(acts.PublishIncident, activity.RegisterOptions{Name: workflows.ActivityPublishIncident})

	if err := w.Start(); err != nil {
		log.Fatalf("worker: %v", err)
	}
	slog.Info("incident worker started", "task_queue", cfg.Temporal.TaskQueue)

	return func() {
		w.Stop()
		c.Close()
		if pub != nil {
			pub.Close()
		}
	}
}
