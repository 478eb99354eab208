package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/samirrijal/saferoute/internal/adapters/postgres"
	"github.com/samirrijal/saferoute/internal/adapters/zonefile"
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/usecases"
	"github.com/samirrijal/saferoute/internal/pkg/config"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

type Options struct {
	Input  string `short:"i" long:"in" description:"Zone file to load (.yaml, .yml, .geojson, .json)"`
	Export bool   `short:"e" long:"export" description:"Write the zones stored in the database as YAML instead of loading"`
	Output string `short:"o" long:"out" description:"Export destination. Writes to stdout if empty"`
	DryRun bool   `short:"n" long:"dry-run" description:"Parse and buffer the zones without touching the database"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if !opts.Export && opts.Input == "" {
		fmt.Fprintln(os.Stderr, "Error: --in is required unless --export is set")
		os.Exit(1)
	}

	cfg, err := config.Load("saferoute-zoneloader")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")
	ctx := context.Background()

	if opts.Export {
		if err := export(ctx, cfg, opts.Output); err != nil {
			log.Fatalf("export: %v", err)
		}
		return
	}

	zones, err := zonefile.NewSource(opts.Input).ListUnsafeZones(ctx)
	if err != nil {
		log.Fatalf("read zones: %v", err)
	}
	if err := check(cfg, zones); err != nil {
		log.Fatalf("invalid zones: %v", err)
	}
	slog.Info("zones parsed", "file", opts.Input, "count", len(zones))
	if opts.DryRun {
		return
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	n, err := postgres.NewZoneRepo(db).ReplaceUnsafeZones(ctx, zones)
	if err != nil {
		log.Fatalf("store zones: %v", err)
	}
	slog.Info("unsafe zones replaced", "rows", n)
}

// check buffers every zone with the configured projection so a file that
// the API would refuse at start-up is refused here too.
func check(cfg *config.Config, zones []domain.UnsafeZone) error {
	p := cfg.Avoidance.Projection
	frames, err := geospatial.NewFrameSelector(p.Mode, p.UTMZone, p.North)
	if err != nil {
		return err
	}
	_, err = usecases.NewAvoidanceAssembler(zones, usecases.AvoidanceOptions{
		RadiusMeters: cfg.Avoidance.RadiusMeters,
		Segments:     cfg.Avoidance.Segments,
		Frames:       frames,
	})
	return err
}

func export(ctx context.Context, cfg *config.Config, out string) error {
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	zones, err := postgres.NewZoneRepo(db).ListUnsafeZones(ctx)
	if err != nil {
		return err
	}
	data, err := zonefile.MarshalYAML(zones)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
