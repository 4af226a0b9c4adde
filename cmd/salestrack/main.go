package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	corecfg "github.com/salestrack-lab/salestrack/internal/core/config"
	"github.com/salestrack-lab/salestrack/internal/core/logging"
	"github.com/salestrack-lab/salestrack/internal/core/storage/postgres"
	"github.com/salestrack-lab/salestrack/internal/migrations"
	"github.com/salestrack-lab/salestrack/internal/scan"
	"github.com/salestrack-lab/salestrack/internal/server"
	"github.com/salestrack-lab/salestrack/internal/source"
)

func main() {
	configPath := flag.String("config", "config/salestrack.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Load .env (optional) so SALESTRACK_* overrides are visible to koanf
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	slog.SetDefault(logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}))
	slog.Info("Loaded config",
		"address", cfg.Server.Addr(),
		"timezone", cfg.Analytics.Timezone,
		"scan_enabled", cfg.Scan.Enabled,
		"scan_interval", cfg.Scan.Interval,
	)

	// 3. Initialize Storage (PostgreSQL)
	db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	// 3.1. Run Database Migrations
	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	store, err := postgres.NewStore(db)
	if err != nil {
		slog.Error("Failed to prepare store", "error", err)
		db.Close()
		os.Exit(1)
	}
	// Closes the prepared statements and the pool.
	defer store.Close()

	// 4. Initialize the source client
	client := source.NewClient(source.Options{
		BaseURL:           cfg.Source.BaseURL,
		Token:             cfg.Source.Token,
		UserAgent:         cfg.Source.UserAgent,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		Burst:             cfg.Source.Burst,
		Timeout:           cfg.Scan.CallTimeout,
	})

	// 5. Initialize Catalog, Projection and Scan Orchestrator
	svcs, err := newServices(cfg, store, client)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		store.Close()
		os.Exit(1)
	}
	orchestrator, scheduler := svcs.orchestrator, svcs.scheduler

	// 6. Initialize Server
	srv := server.New(cfg.Server.Addr(), db, cfg.Server.Mode)
	svcs.projection.RegisterRoutes(srv.Engine)
	scan.NewHandler(orchestrator, scheduler).RegisterRoutes(srv.Engine)

	// 7. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	schedulerDone := make(chan struct{})
	if scheduler != nil {
		go func() {
			defer close(schedulerDone)
			if err := scheduler.Run(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}()
	} else {
		close(schedulerDone)
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
		cancel()
	}

	<-schedulerDone
	slog.Info("Waiting for background scans to finish...")
	orchestrator.Wait()
	slog.Info("Shutdown complete")
}
