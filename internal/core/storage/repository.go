package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("not found")

// ItemStore manages the tracked catalog.
type ItemStore interface {
	// UpsertItems creates items whose URL is not yet known and returns how many were created.
	// Existing rows are left untouched and nothing is ever deleted.
	UpsertItems(ctx context.Context, items []v1.Item) (int, error)

	ListItems(ctx context.Context) ([]v1.Item, error)

	// GetItem returns ErrNotFound for unknown ids.
	GetItem(ctx context.Context, id string) (*v1.Item, error)

	ListScanTargets(ctx context.Context) ([]v1.ScanTarget, error)

	// UpdateItemDetails refreshes descriptive attributes reported by the source.
	// Nil values keep the stored value.
	UpdateItemDetails(ctx context.Context, id string, author, category *string) error
}

// SnapshotStore is the append-only sales counter history.
// Every series is returned newest first.
type SnapshotStore interface {
	AppendSnapshot(ctx context.Context, snapshot v1.Snapshot) error

	// ListSnapshots returns the item's snapshots with ScannedAt >= since.
	// A zero since returns the full history.
	ListSnapshots(ctx context.Context, itemID string, since time.Time) ([]v1.Snapshot, error)

	// ListSnapshotsBatch is ListSnapshots for many items in one round trip, keyed by item id.
	ListSnapshotsBatch(ctx context.Context, itemIDs []string, since time.Time) (map[string][]v1.Snapshot, error)

	// LatestSnapshots returns the most recent snapshot per item. Items without snapshots are absent.
	LatestSnapshots(ctx context.Context, itemIDs []string) (map[string]v1.Snapshot, error)

	// OldestSnapshotTime and NewestSnapshotTime return nil when no snapshot exists.
	OldestSnapshotTime(ctx context.Context) (*time.Time, error)
	NewestSnapshotTime(ctx context.Context) (*time.Time, error)
}

// ScanRunStore persists scan run lifecycle records.
type ScanRunStore interface {
	CreateScanRun(ctx context.Context, run v1.ScanRun) error

	// UpdateScanRun applies the terminal transition. Returns ErrNotFound when the run does not exist.
	UpdateScanRun(ctx context.Context, id string, update v1.ScanRunUpdate) error

	// FindRunningScanRun returns the newest RUNNING run, or nil.
	FindRunningScanRun(ctx context.Context) (*v1.ScanRun, error)

	// FindLastCompletedScanRun returns the newest COMPLETED run, or nil.
	FindLastCompletedScanRun(ctx context.Context) (*v1.ScanRun, error)

	ListRecentScanRuns(ctx context.Context, limit int) ([]v1.ScanRun, error)
	CountScanRuns(ctx context.Context) (v1.ScanRunCounts, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	ItemStore
	SnapshotStore
	ScanRunStore
}
