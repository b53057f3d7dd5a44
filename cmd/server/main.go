package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"infinite-experiment/poolroster/internal/api"
	"infinite-experiment/poolroster/internal/config"
	"infinite-experiment/poolroster/internal/db"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/metrics"
	"infinite-experiment/poolroster/internal/routes"
	"infinite-experiment/poolroster/internal/store"
	"infinite-experiment/poolroster/internal/workers"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Pool roster starting up",
		"environment", cfg.AppEnv,
		"db_driver", cfg.DBDriver,
		"redis_enabled", cfg.RedisEnabled,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	// Connect to DB with GORM
	orm, err := db.OpenORM(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to database (GORM)", "error", err.Error())
	}
	if err := store.Migrate(orm); err != nil {
		logging.Fatal("Failed to migrate roster tables", "error", err.Error())
	}

	// Reporting queries run through sqlx
	sqlxDB, err := db.OpenSQLX(cfg, orm)
	if err != nil {
		logging.Fatal("Failed to connect to database (sqlx)", "error", err.Error())
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)
	deps := api.InitDependencies(cfg, orm, sqlxDB, metricsReg)
	if !deps.Services.AdminAuth.Enabled() {
		logging.Warn("ADMIN_PASSWORD_HASH not set, history clearing is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Collections.Guests.Run(gctx)
		return nil
	})
	g.Go(func() error {
		deps.Collections.History.Run(gctx)
		return nil
	})

	var source workers.ChangeSource
	if deps.Collections.Notifier != nil {
		source = deps.Collections.Notifier
	}
	workers.InitWorkers(gctx, g, source, deps.Collections.Guests, deps.Collections.History)

	upSince := time.Now()
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           routes.RegisterRoutes(deps, cfg.CORSOrigins, upSince),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logging.Info("Server starting", "port", cfg.HTTPPort, "environment", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Closing consoles ends their event streams so Shutdown can finish.
		deps.Consoles.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server shutdown failed", "error", err.Error())
		}
		if deps.Redis != nil {
			_ = deps.Redis.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server stopped with error", "error", err.Error())
		os.Exit(1)
	}
	logging.Info("Server stopped")
}
