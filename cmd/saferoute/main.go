// Command saferoute plans one safe route from the command line and prints it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/samirrijal/saferoute/internal/adapters/http"
	"github.com/samirrijal/saferoute/internal/adapters/openrouteservice"
	"github.com/samirrijal/saferoute/internal/adapters/zonefile"
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/usecases"
	"github.com/samirrijal/saferoute/internal/pkg/config"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

type Options struct {
	Zones   string `short:"z" long:"zones" description:"Unsafe zone file. Defaults to avoidance.zones_file"`
	NoAvoid bool   `long:"no-avoid" description:"Route without the avoidance region"`
	Format  string `short:"f" long:"format" description:"Output format" choice:"json" choice:"text" default:"text"`
	Args    struct {
		Start string `positional-arg-name:"start" description:"Start address or lat,lng"`
		End   string `positional-arg-name:"end" description:"End address or lat,lng"`
	} `positional-args:"yes" required:"yes"`
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

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if domain.KindOf(err) != "" {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(opts Options) error {
	cfg, err := config.Load("saferoute-cli")
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, "text")
	ctx, cancel := context.WithTimeout(context.Background(), 3*cfg.Routing.Timeout)
	defer cancel()

	zonesPath := cfg.Avoidance.ZonesFile
	if opts.Zones != "" {
		zonesPath = opts.Zones
	}
	var zones []domain.UnsafeZone
	if !opts.NoAvoid {
		if zones, err = zonefile.NewSource(zonesPath).ListUnsafeZones(ctx); err != nil {
			return err
		}
	}

	p := cfg.Avoidance.Projection
	frames, err := geospatial.NewFrameSelector(p.Mode, p.UTMZone, p.North)
	if err != nil {
		return err
	}
	avoidance, err := usecases.NewAvoidanceAssembler(zones, usecases.AvoidanceOptions{
		RadiusMeters: cfg.Avoidance.RadiusMeters,
		Segments:     cfg.Avoidance.Segments,
		Frames:       frames,
	})
	if err != nil {
		return err
	}

	ors := openrouteservice.NewClient(cfg.Routing.BaseURL, cfg.Routing.APIKey, cfg.Routing.Timeout)
	svc := usecases.NewRouteService(
		usecases.NewCoordinateResolver(ors, nil, 0),
		avoidance, ors, openrouteservice.PolylineCodec{},
		usecases.RouteOptions{ParallelWalk: cfg.Routing.ParallelWalk},
	)

	route, err := svc.Plan(ctx, opts.Args.Start, opts.Args.End)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(http.NewRouteResponse(route))
	}
	printSummary(route, len(zones))
	return nil
}

func printSummary(r *domain.SafeRoute, zones int) {
	fmt.Printf("from  %.5f,%.5f\n", r.Start.Lat, r.Start.Lon)
	fmt.Printf("to    %.5f,%.5f\n", r.End.Lat, r.End.Lon)
	fmt.Printf("drive %.2f km, %.0f min, %d points\n", r.Car.Distance/1000, r.Car.Duration/60, len(r.Car.Path))
	fmt.Printf("walk  %.2f km, %.0f min, %d points\n", r.Walk.Distance/1000, r.Walk.Duration/60, len(r.Walk.Path))
	switch {
	case r.AvoidanceApplied:
		fmt.Printf("avoiding %d unsafe zones\n", zones)
	case r.AvoidanceRejection != "":
		fmt.Printf("avoidance rejected by provider: %s\n", r.AvoidanceRejection)
	default:
		fmt.Println("no avoidance")
	}
}
