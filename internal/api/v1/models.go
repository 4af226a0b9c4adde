package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a tracked marketplace listing.
// URL is the natural dedup key; items are created once and never deleted.
type Item struct {
	ID string `json:"id"`

	// SourceID is the listing identifier on the external catalog API.
	SourceID string `json:"source_id"`

	Name string `json:"name"`
	URL  string `json:"url"`

	// Author and Category are unknown until the first successful scan refreshes them.
	Author   *string `json:"author,omitempty"`
	Category *string `json:"category,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate ensures the item has the attributes needed to be scanned.
func (i *Item) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("name is required")
	}
	if i.URL == "" {
		return fmt.Errorf("url is required")
	}
	if i.SourceID == "" {
		return fmt.Errorf("source_id is required")
	}
	return nil
}

// ScanTarget is the lightweight projection of an Item used by the scanner.
type ScanTarget struct {
	ItemID   string
	SourceID string
}

// Snapshot is one observation of an item's cumulative sales counter.
// Snapshots are append-only.
type Snapshot struct {
	ItemID string `json:"item_id"`

	// ScannedAt is a UTC instant. Calendar fields are only derived at bucketing time.
	ScannedAt time.Time `json:"scanned_at"`

	// SalesCount is cumulative and expected to be non-decreasing per item,
	// but readers must tolerate decreases (counter resets, scrape glitches).
	SalesCount int64 `json:"sales_count"`

	// Price is nil when the source did not report one. Never coerce to zero.
	Price *decimal.Decimal `json:"price,omitempty"`
}

// Validate ensures the snapshot can be appended.
func (s *Snapshot) Validate() error {
	if s.ItemID == "" {
		return fmt.Errorf("item_id is required")
	}
	if s.SalesCount < 0 {
		return fmt.Errorf("sales_count must be >= 0, got %d", s.SalesCount)
	}
	return nil
}

// ScanStatus is the lifecycle state of a ScanRun.
type ScanStatus string

const (
	ScanRunning   ScanStatus = "RUNNING"
	ScanCompleted ScanStatus = "COMPLETED"
	ScanFailed    ScanStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s ScanStatus) Terminal() bool {
	return s == ScanCompleted || s == ScanFailed
}

// ScanRun records one execution of the scan orchestrator.
// Created RUNNING, transitions exactly once to COMPLETED or FAILED.
type ScanRun struct {
	ID           string     `json:"id"`
	Status       ScanStatus `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ItemsScanned *int       `json:"items_scanned,omitempty"`
	ItemsFailed  *int       `json:"items_failed,omitempty"`
	Error        *string    `json:"error,omitempty"`
}

// Age returns how long the run has been going (or went) as of now.
func (r *ScanRun) Age(now time.Time) time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}

// ScanRunUpdate is the terminal transition applied to a RUNNING ScanRun.
type ScanRunUpdate struct {
	Status       ScanStatus
	CompletedAt  time.Time
	ItemsScanned *int
	ItemsFailed  *int
	Error        *string
}

// ScanRunCounts aggregates scan history for status reporting.
type ScanRunCounts struct {
	Total     int64 `json:"total_scans"`
	Completed int64 `json:"successful_scans"`
	Failed    int64 `json:"failed_scans"`
}

// SuccessRate returns the rounded percentage of completed runs.
func (c ScanRunCounts) SuccessRate() int {
	if c.Total == 0 {
		return 0
	}
	return int((float64(c.Completed)/float64(c.Total))*100 + 0.5)
}
