package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner executes one admitted scan synchronously.
type Runner interface {
	Run(ctx context.Context) (Outcome, *Result, error)
}

// SchedulerStatus is served by GET /v1/scheduler/status.
type SchedulerStatus struct {
	Running   bool       `json:"running"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Interval  string     `json:"interval"`
}

// Scheduler triggers scans on a fixed interval.
// Every tick goes through normal admission; the scheduler keeps no scan state of its own.
type Scheduler struct {
	interval   time.Duration
	runner     Runner
	runOnStart bool

	mu        sync.Mutex
	active    bool
	startedAt *time.Time
	lastRun   *time.Time
	lastError string

	nowFn func() time.Time
}

// NewScheduler creates a scheduler. It starts active; Pause stops ticks from triggering scans.
func NewScheduler(interval time.Duration, runner Runner, runOnStart bool) *Scheduler {
	return &Scheduler{
		interval:   interval,
		runner:     runner,
		runOnStart: runOnStart,
		active:     true,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.mu.Lock()
	now := s.nowFn()
	s.startedAt = &now
	s.mu.Unlock()

	slog.Info("[Scheduler] Starting scan scheduler",
		"interval", s.interval,
		"run_on_start", s.runOnStart,
	)

	if s.runOnStart {
		s.tick(ctx)
	}

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

// Pause stops future ticks from triggering scans. Returns false if already paused.
func (s *Scheduler) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.active = false
	slog.Info("[Scheduler] Paused")
	return true
}

// Resume re-enables ticks. Returns false if already active.
func (s *Scheduler) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false
	}
	s.active = true
	slog.Info("[Scheduler] Resumed")
	return true
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{
		Running:   s.active,
		StartedAt: s.startedAt,
		LastRun:   s.lastRun,
		LastError: s.lastError,
		Interval:  s.interval.String(),
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		slog.Debug("[Scheduler] Tick skipped (paused)")
		return
	}

	outcome, result, err := s.runner.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastError = err.Error()
		slog.Error("[Scheduler] Scan trigger failed", "error", err)
		return
	}
	if !outcome.Admitted {
		slog.Info("[Scheduler] Scan skipped", "reason", outcome.Reason, "scan_run_id", outcome.RunID)
		return
	}

	now := s.nowFn()
	s.lastRun = &now
	s.lastError = ""
	if result != nil && result.Err != nil {
		s.lastError = result.Err.Error()
	}
}
