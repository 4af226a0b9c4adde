package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
)

// AppendSnapshot stores one observation. ScannedAt is normalized to UTC.
func (a *Adapter) AppendSnapshot(ctx context.Context, snapshot v1.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	_, err := a.stmtAppendSnapshot.ExecContext(ctx,
		snapshot.ItemID,
		snapshot.ScannedAt.UTC(),
		snapshot.SalesCount,
		nullPrice(snapshot.Price),
	)
	if err != nil {
		return fmt.Errorf("failed to append snapshot for item %s: %w", snapshot.ItemID, err)
	}
	return nil
}

// ListSnapshots returns one item's series since the given instant, newest first.
func (a *Adapter) ListSnapshots(ctx context.Context, itemID string, since time.Time) ([]v1.Snapshot, error) {
	rows, err := a.stmtListSnapshots.QueryContext(ctx, itemID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var series []v1.Snapshot
	for rows.Next() {
		snap, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		series = append(series, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return series, nil
}

// ListSnapshotsBatch returns the series of several items keyed by item id, each newest first.
func (a *Adapter) ListSnapshotsBatch(ctx context.Context, itemIDs []string, since time.Time) (map[string][]v1.Snapshot, error) {
	out := make(map[string][]v1.Snapshot, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	rows, err := a.stmtListSnapshotsBatch.QueryContext(ctx, pq.Array(itemIDs), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		snap, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		out[snap.ItemID] = append(out[snap.ItemID], snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot batch: %w", err)
	}
	return out, nil
}

// LatestSnapshots returns the newest snapshot of each item that has one.
func (a *Adapter) LatestSnapshots(ctx context.Context, itemIDs []string) (map[string]v1.Snapshot, error) {
	out := make(map[string]v1.Snapshot, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	rows, err := a.stmtLatestSnapshots.QueryContext(ctx, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		snap, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		out[snap.ItemID] = snap
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest snapshots: %w", err)
	}
	return out, nil
}

func (a *Adapter) OldestSnapshotTime(ctx context.Context) (*time.Time, error) {
	return a.boundaryTime(ctx, queryOldestSnapshotTime)
}

func (a *Adapter) NewestSnapshotTime(ctx context.Context) (*time.Time, error) {
	return a.boundaryTime(ctx, queryNewestSnapshotTime)
}

func (a *Adapter) boundaryTime(ctx context.Context, query string) (*time.Time, error) {
	var t sql.NullTime
	if err := a.db.QueryRowContext(ctx, query).Scan(&t); err != nil {
		return nil, fmt.Errorf("failed to query snapshot boundary: %w", err)
	}
	if !t.Valid {
		return nil, nil
	}
	utc := t.Time.UTC()
	return &utc, nil
}
