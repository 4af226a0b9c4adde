package scan

import (
	"errors"
	"fmt"
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
)

var (
	ErrScanAlreadyRunning = errors.New("scan already in progress")
	ErrScanTooRecent      = errors.New("scan ran too recently")
)

// Reason is the machine-readable admission result.
type Reason string

const (
	ReasonOK               Reason = "OK"
	ReasonInProgress       Reason = "IN_PROGRESS"
	ReasonTooRecent        Reason = "TOO_RECENT"
	ReasonTimedOutPrevious Reason = "TIMED_OUT_PREVIOUS"
)

// Outcome describes an admission decision. Rejections are outcomes, not errors.
type Outcome struct {
	Admitted bool   `json:"success"`
	Reason   Reason `json:"reason"`

	// RunID is the new run when admitted, or the blocking run for IN_PROGRESS.
	RunID     string     `json:"scan_run_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`

	// RetryAfter is the remaining wait for TOO_RECENT, never negative.
	RetryAfter time.Duration `json:"-"`

	// TimedOutRunID is the stale run that was forced to FAILED for TIMED_OUT_PREVIOUS.
	TimedOutRunID string `json:"timed_out_run_id,omitempty"`
}

// Err maps a rejection to its sentinel error; admitted outcomes return nil.
func (o Outcome) Err() error {
	switch o.Reason {
	case ReasonInProgress:
		started := ""
		if o.StartedAt != nil {
			started = o.StartedAt.UTC().Format(time.RFC3339)
		}
		return fmt.Errorf("%w: run %s started at %s", ErrScanAlreadyRunning, o.RunID, started)
	case ReasonTooRecent:
		return fmt.Errorf("%w: retry in %s", ErrScanTooRecent, o.RetryAfter.Round(time.Second))
	default:
		return nil
	}
}

// Message is a human-readable summary for API responses and logs.
func (o Outcome) Message() string {
	switch o.Reason {
	case ReasonOK:
		return "Scan started"
	case ReasonTimedOutPrevious:
		return "Previous scan timed out; new scan started"
	case ReasonInProgress:
		return "A scan is already in progress"
	case ReasonTooRecent:
		return fmt.Sprintf("Last scan completed recently; retry in %s", o.RetryAfter.Round(time.Second))
	default:
		return string(o.Reason)
	}
}

// Result summarizes one executed run.
type Result struct {
	RunID        string         `json:"scan_run_id"`
	Status       v1.ScanStatus  `json:"status"`
	ItemsScanned int            `json:"items_scanned"`
	ItemsFailed  int            `json:"items_failed"`
	Failures     map[string]int `json:"failures,omitempty"`
	ItemsCreated int            `json:"items_created"`
	Duration     time.Duration  `json:"-"`
	Err          error          `json:"-"`
}
