package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/salestrack-lab/salestrack/internal/core/storage"
	"github.com/salestrack-lab/salestrack/internal/source"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxDuration = 10 * time.Minute
	defaultMinInterval = 45 * time.Minute
	defaultBatchSize   = 3
	defaultCallTimeout = 10 * time.Second
	defaultBatchDelay  = 200 * time.Millisecond

	finalizeTimeout = 5 * time.Second

	failureStore = "store"
)

// Fetcher reads one listing from the external catalog.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string) (*source.Observation, error)
}

// Catalog provides the configured listings reconciled before every run.
type Catalog interface {
	Items() []v1.Item
}

// Invalidator drops cached analytics after a run lands new snapshots.
type Invalidator interface {
	InvalidateAnalytics()
}

// Options controls admission thresholds and batching.
type Options struct {
	MaxDuration time.Duration
	MinInterval time.Duration
	BatchSize   int
	CallTimeout time.Duration
	BatchDelay  time.Duration
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		MaxDuration: defaultMaxDuration,
		MinInterval: defaultMinInterval,
		BatchSize:   defaultBatchSize,
		CallTimeout: defaultCallTimeout,
		BatchDelay:  defaultBatchDelay,
	}
}

func (o Options) normalized() Options {
	n := o
	if n.MaxDuration <= 0 {
		n.MaxDuration = defaultMaxDuration
	}
	if n.MinInterval < 0 {
		n.MinInterval = 0
	}
	if n.BatchSize <= 0 {
		n.BatchSize = defaultBatchSize
	}
	if n.CallTimeout <= 0 {
		n.CallTimeout = defaultCallTimeout
	}
	if n.BatchDelay < 0 {
		n.BatchDelay = 0
	}
	return n
}

// Orchestrator admits and executes scan runs.
// The scan_runs table is the only record of run state; nothing is kept in process memory
// beyond the wait group for background executions.
type Orchestrator struct {
	store       storage.Store
	fetcher     Fetcher
	catalog     Catalog
	invalidator Invalidator
	opts        Options

	nowFn func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	newID func() string

	background sync.WaitGroup
}

// NewOrchestrator wires an orchestrator. catalog and invalidator may be nil.
func NewOrchestrator(store storage.Store, fetcher Fetcher, catalog Catalog, invalidator Invalidator, opts Options) *Orchestrator {
	return &Orchestrator{
		store:       store,
		fetcher:     fetcher,
		catalog:     catalog,
		invalidator: invalidator,
		opts:        opts.normalized(),
		nowFn:       func() time.Time { return time.Now().UTC() },
		sleep:       sleepContext,
		newID:       uuid.NewString,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Admit runs the admission checks and, when admitted, creates the RUNNING run.
// The check-then-create sequence is not atomic; two triggers racing can both be admitted.
func (o *Orchestrator) Admit(ctx context.Context) (Outcome, error) {
	now := o.nowFn()
	outcome := Outcome{Reason: ReasonOK}

	running, err := o.store.FindRunningScanRun(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("checking running scan: %w", err)
	}

	if running != nil {
		age := now.Sub(running.StartedAt)
		if age <= o.opts.MaxDuration {
			started := running.StartedAt
			return Outcome{Reason: ReasonInProgress, RunID: running.ID, StartedAt: &started}, nil
		}

		msg := fmt.Sprintf("scan timed out after %s", age.Round(time.Second))
		err := o.store.UpdateScanRun(ctx, running.ID, v1.ScanRunUpdate{
			Status:      v1.ScanFailed,
			CompletedAt: now,
			Error:       &msg,
		})
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return Outcome{}, fmt.Errorf("failing stale scan %s: %w", running.ID, err)
		}

		slog.Warn("[Scan] Stale run marked failed",
			"scan_run_id", running.ID,
			"started_at", running.StartedAt,
			"age", age.Round(time.Second))

		outcome.Reason = ReasonTimedOutPrevious
		outcome.TimedOutRunID = running.ID
	} else if o.opts.MinInterval > 0 {
		last, err := o.store.FindLastCompletedScanRun(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("checking last completed scan: %w", err)
		}
		if last != nil && last.CompletedAt != nil {
			if elapsed := now.Sub(*last.CompletedAt); elapsed < o.opts.MinInterval {
				wait := o.opts.MinInterval - elapsed
				if wait < 0 {
					wait = 0
				}
				return Outcome{Reason: ReasonTooRecent, RunID: last.ID, RetryAfter: wait}, nil
			}
		}
	}

	run := v1.ScanRun{ID: o.newID(), Status: v1.ScanRunning, StartedAt: now}
	if err := o.store.CreateScanRun(ctx, run); err != nil {
		return Outcome{}, fmt.Errorf("creating scan run: %w", err)
	}

	outcome.Admitted = true
	outcome.RunID = run.ID
	outcome.StartedAt = &run.StartedAt
	return outcome, nil
}

// Run admits and, if admitted, executes a scan synchronously.
// The returned Result is nil when the request was rejected.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, *Result, error) {
	outcome, err := o.Admit(ctx)
	if err != nil || !outcome.Admitted {
		return outcome, nil, err
	}

	result := o.execute(ctx, outcome.RunID, *outcome.StartedAt)
	return outcome, &result, nil
}

// Start admits synchronously and executes in the background.
// Execution is detached from ctx so it outlives the HTTP request that triggered it.
func (o *Orchestrator) Start(ctx context.Context) (Outcome, error) {
	outcome, err := o.Admit(ctx)
	if err != nil || !outcome.Admitted {
		return outcome, err
	}

	runCtx := context.WithoutCancel(ctx)
	o.background.Add(1)
	go func() {
		defer o.background.Done()
		o.execute(runCtx, outcome.RunID, *outcome.StartedAt)
	}()

	return outcome, nil
}

// Wait blocks until every background execution started by Start has finished.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

type tally struct {
	mu       sync.Mutex
	attempts int
	failures map[string]int
}

func (t *tally) record(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
	if kind != "" {
		t.failures[kind]++
	}
}

func (t *tally) failed() int {
	n := 0
	for _, c := range t.failures {
		n += c
	}
	return n
}

func (o *Orchestrator) execute(ctx context.Context, runID string, startedAt time.Time) Result {
	slog.Info("[Scan] Run started", "scan_run_id", runID)

	t := &tally{failures: make(map[string]int)}
	created, err := o.scanAll(ctx, runID, t)

	result := Result{
		RunID:        runID,
		ItemsScanned: t.attempts,
		ItemsFailed:  t.failed(),
		ItemsCreated: created,
		Duration:     o.nowFn().Sub(startedAt),
	}
	if len(t.failures) > 0 {
		result.Failures = t.failures
	}

	update := v1.ScanRunUpdate{CompletedAt: o.nowFn()}
	if err != nil {
		msg := err.Error()
		update.Status = v1.ScanFailed
		update.Error = &msg
		result.Err = err
	} else {
		update.Status = v1.ScanCompleted
		update.ItemsScanned = &result.ItemsScanned
		update.ItemsFailed = &result.ItemsFailed
	}
	result.Status = update.Status

	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	if ferr := o.store.UpdateScanRun(finalizeCtx, runID, update); ferr != nil {
		slog.Error("[Scan] Failed to finalize run", "scan_run_id", runID, "status", update.Status, "error", ferr)
		result.Err = errors.Join(result.Err, fmt.Errorf("finalizing scan run: %w", ferr))
	}

	if err != nil {
		slog.Error("[Scan] Run failed",
			"scan_run_id", runID,
			"items_scanned", result.ItemsScanned,
			"duration", result.Duration,
			"error", err)
		return result
	}

	if o.invalidator != nil {
		o.invalidator.InvalidateAnalytics()
	}

	slog.Info("[Scan] Run completed",
		"scan_run_id", runID,
		"items_scanned", result.ItemsScanned,
		"items_failed", result.ItemsFailed,
		"items_created", result.ItemsCreated,
		"failures", result.Failures,
		"duration", result.Duration)
	return result
}

// scanAll reconciles the catalog and scans every target batch by batch.
// Only store failures outside per-item work and cancellation abort the run.
func (o *Orchestrator) scanAll(ctx context.Context, runID string, t *tally) (int, error) {
	created := 0
	if o.catalog != nil {
		n, err := o.store.UpsertItems(ctx, o.catalog.Items())
		if err != nil {
			return 0, fmt.Errorf("reconciling catalog: %w", err)
		}
		created = n
		if n > 0 {
			slog.Info("[Scan] Added new catalog items", "scan_run_id", runID, "created", n)
		}
	}

	targets, err := o.store.ListScanTargets(ctx)
	if err != nil {
		return created, fmt.Errorf("listing scan targets: %w", err)
	}

	batches := chunk(targets, o.opts.BatchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return created, fmt.Errorf("scan cancelled before batch %d of %d: %w", i+1, len(batches), err)
		}

		slog.Debug("[Scan] Processing batch",
			"scan_run_id", runID,
			"batch", i+1,
			"batches", len(batches),
			"items", len(batch))

		o.scanBatch(ctx, batch, t)

		if i < len(batches)-1 && o.opts.BatchDelay > 0 {
			if err := o.sleep(ctx, o.opts.BatchDelay); err != nil {
				return created, fmt.Errorf("scan cancelled after batch %d of %d: %w", i+1, len(batches), err)
			}
		}
	}

	return created, nil
}

// scanBatch fetches every target of one batch concurrently and waits for all of them.
func (o *Orchestrator) scanBatch(ctx context.Context, batch []v1.ScanTarget, t *tally) {
	var g errgroup.Group
	g.SetLimit(len(batch))

	for _, target := range batch {
		g.Go(func() error {
			kind, err := o.scanItem(ctx, target)
			t.record(kind)
			if err != nil {
				slog.Warn("[Scan] Item failed",
					"item_id", target.ItemID,
					"source_id", target.SourceID,
					"kind", kind,
					"error", err)
			}
			// Per-item failures never abort the batch.
			return nil
		})
	}

	_ = g.Wait()
}

// scanItem returns the failure kind ("" on success) and the underlying error.
func (o *Orchestrator) scanItem(ctx context.Context, target v1.ScanTarget) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	defer cancel()

	obs, err := o.fetcher.Fetch(callCtx, target.SourceID)
	if err != nil {
		return source.Kind(err), err
	}

	snapshot := v1.Snapshot{
		ItemID:     target.ItemID,
		ScannedAt:  o.nowFn().UTC(),
		SalesCount: obs.SalesCount,
		Price:      obs.Price,
	}
	if err := o.store.AppendSnapshot(ctx, snapshot); err != nil {
		return failureStore, fmt.Errorf("storing snapshot: %w", err)
	}

	if obs.Author != nil || obs.Category != nil {
		if err := o.store.UpdateItemDetails(ctx, target.ItemID, obs.Author, obs.Category); err != nil {
			slog.Warn("[Scan] Failed to refresh item details", "item_id", target.ItemID, "error", err)
		}
	}

	slog.Debug("[Scan] Item scanned",
		"item_id", target.ItemID,
		"source_id", target.SourceID,
		"sales", obs.SalesCount)
	return "", nil
}

func chunk(targets []v1.ScanTarget, size int) [][]v1.ScanTarget {
	if size <= 0 {
		size = 1
	}
	batches := make([][]v1.ScanTarget, 0, (len(targets)+size-1)/size)
	for start := 0; start < len(targets); start += size {
		end := start + size
		if end > len(targets) {
			end = len(targets)
		}
		batches = append(batches, targets[start:end])
	}
	return batches
}
