package main

import (
	"log/slog"

	"github.com/salestrack-lab/salestrack/internal/cache"
	"github.com/salestrack-lab/salestrack/internal/catalog"
	"github.com/salestrack-lab/salestrack/internal/core/analytics"
	corecfg "github.com/salestrack-lab/salestrack/internal/core/config"
	"github.com/salestrack-lab/salestrack/internal/core/storage"
	"github.com/salestrack-lab/salestrack/internal/projection"
	"github.com/salestrack-lab/salestrack/internal/scan"
)

type services struct {
	catalog      *catalog.Catalog
	projection   *projection.Service
	orchestrator *scan.Orchestrator

	// scheduler is nil when scheduled scanning is disabled; manual scans still run.
	scheduler *scan.Scheduler
}

// newServices builds the read and scan paths over one store.
// The catalog is always loaded: manual scans reconcile it and analytics filter by it.
func newServices(cfg *corecfg.Config, store storage.Store, fetcher scan.Fetcher) (*services, error) {
	tracked, err := catalog.Load(cfg.Scan.CatalogPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Catalog loaded", "path", cfg.Scan.CatalogPath, "items", tracked.Len())

	cacheOpts := []cache.Option{}
	if !cfg.Cache.Enabled {
		cacheOpts = append(cacheOpts, cache.Disabled())
	}

	projectionSvc := projection.NewService(
		store,
		analytics.NewEngine(cfg.Analytics.Location),
		cache.New(cacheOpts...),
		tracked,
		projection.Options{
			DailyLookbackDays:  cfg.Analytics.DailyLookbackDays,
			WeeklyLookbackDays: cfg.Analytics.WeeklyLookbackDays,
			YearlyLookbackDays: cfg.Analytics.YearlyLookbackDays,
			DataRangeTTL:       cfg.Cache.DataRangeTTL,
		},
	)

	orchestrator := scan.NewOrchestrator(store, fetcher, tracked, projectionSvc, scan.Options{
		MaxDuration: cfg.Scan.MaxDuration,
		MinInterval: cfg.Scan.MinInterval,
		BatchSize:   cfg.Scan.BatchSize,
		CallTimeout: cfg.Scan.CallTimeout,
		BatchDelay:  cfg.Scan.BatchDelay,
	})

	var scheduler *scan.Scheduler
	if cfg.Scan.Enabled {
		scheduler = scan.NewScheduler(cfg.Scan.Interval, orchestrator, cfg.Scan.RunOnStart)
	} else {
		slog.Info("Scan scheduler disabled by config")
	}

	return &services{
		catalog:      tracked,
		projection:   projectionSvc,
		orchestrator: orchestrator,
		scheduler:    scheduler,
	}, nil
}
