package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/saferoute/internal/pkg/config"
)

var upFiles = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_core_tables.sql",
}

// Down migrations run in reverse; the postgis extension is left in place.
var downFiles = []string{
	"migrations/down/002_core_tables.sql",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("saferoute-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		apply(ctx, pool, upFiles)
		log.Println("all migrations applied")
	case "down":
		apply(ctx, pool, downFiles)
		log.Println("all migrations reverted")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func apply(ctx context.Context, pool *pgxpool.Pool, files []string) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}
		fmt.Printf("OK  %s\n", f)
	}
}
