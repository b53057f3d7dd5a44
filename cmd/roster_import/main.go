package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"infinite-experiment/poolroster/internal/api"
	"infinite-experiment/poolroster/internal/config"
	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/db"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/metrics"
	"infinite-experiment/poolroster/internal/spreadsheet"
	"infinite-experiment/poolroster/internal/store"
)

func main() {
	file := flag.StringP("file", "f", "", "path to the .xlsx roster export")
	modeFlag := flag.StringP("mode", "m", "full", "upload mode: full or append")
	batchSize := flag.Int("batch-size", 0, "override WRITE_BATCH_SIZE (max 300)")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	mode, ok := constants.ParseUploadMode(*modeFlag)
	if !ok {
		log.Fatalf("❌ Unknown mode %q, expected full or append", *modeFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if *batchSize > 0 {
		cfg.WriteBatchSize = config.ClampBatchSize(*batchSize)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	candidates, err := spreadsheet.ParseFile(*file)
	if err != nil {
		log.Fatalf("❌ %s: %v", *file, err)
	}
	fmt.Printf("Parsed %d guests from %s\n", len(candidates), *file)
	if *dryRun {
		for _, c := range candidates {
			fmt.Printf("  %-12s %-6s %s\n", c.ReservationCode, c.Room, c.Name)
		}
		return
	}

	orm, err := db.OpenORM(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	if err := store.Migrate(orm); err != nil {
		log.Fatalf("❌ Failed to migrate roster tables: %v", err)
	}
	sqlxDB, err := db.OpenSQLX(cfg, orm)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database (sqlx): %v", err)
	}

	// Writes go through the same services as the server, so with Redis
	// enabled running servers pick the change up immediately.
	deps := api.InitDependencies(cfg, orm, sqlxDB, metrics.NewMetricsRegistry(nil))
	if deps.Redis != nil {
		defer deps.Redis.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := deps.Services.Ingestion.Ingest(ctx, mode, candidates)
	if result != nil {
		fmt.Printf("Mode %s: received %d, added %d, skipped %d, removed %d\n",
			result.Mode, result.Received, result.Added, result.Skipped, result.Removed)
		if result.Archived != nil {
			fmt.Printf("Archived previous roster: %d total, %d entered, %d pending\n",
				result.Archived.TotalGuests, result.Archived.EnteredCount, result.Archived.PendingCount)
		}
	}
	if err != nil {
		log.Fatalf("❌ Import failed: %v", err)
	}
}
