package scan

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
)

const recentRunsLimit = 10

// RunningRun is the in-flight run and how long it has been going.
type RunningRun struct {
	v1.ScanRun
	DurationSeconds int64 `json:"duration_seconds"`
}

// Status is the scan health summary served by GET /v1/scans/status.
type Status struct {
	IsRunning          bool         `json:"is_running"`
	CurrentScan        *RunningRun  `json:"current_scan"`
	LastSuccessfulScan *v1.ScanRun  `json:"last_successful_scan"`
	TotalScans         int64        `json:"total_scans"`
	SuccessfulScans    int64        `json:"successful_scans"`
	FailedScans        int64        `json:"failed_scans"`
	SuccessRate        int          `json:"success_rate"`
	RecentScans        []v1.ScanRun `json:"recent_scans"`
}

// Status reads the current scan state from the store.
func (o *Orchestrator) Status(ctx context.Context) (*Status, error) {
	running, err := o.store.FindRunningScanRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding running scan: %w", err)
	}
	last, err := o.store.FindLastCompletedScanRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding last completed scan: %w", err)
	}
	counts, err := o.store.CountScanRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting scans: %w", err)
	}
	recent, err := o.store.ListRecentScanRuns(ctx, recentRunsLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent scans: %w", err)
	}
	if recent == nil {
		recent = []v1.ScanRun{}
	}

	st := &Status{
		LastSuccessfulScan: last,
		TotalScans:         counts.Total,
		SuccessfulScans:    counts.Completed,
		FailedScans:        counts.Failed,
		SuccessRate:        counts.SuccessRate(),
		RecentScans:        recent,
	}
	if running != nil {
		st.IsRunning = true
		st.CurrentScan = &RunningRun{
			ScanRun:         *running,
			DurationSeconds: int64(running.Age(o.nowFn()) / time.Second),
		}
	}
	return st, nil
}
