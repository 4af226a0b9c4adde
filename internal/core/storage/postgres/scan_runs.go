package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/salestrack-lab/salestrack/internal/core/storage"
)

const (
	scanRunColumns = `id, status, started_at, completed_at, items_scanned, items_failed, error`

	queryCreateScanRun = `
		INSERT INTO scan_runs (id, status, started_at)
		VALUES ($1, $2, $3)
	`

	// queryUpdateScanRun only transitions RUNNING rows; a terminal status is final.
	queryUpdateScanRun = `
		UPDATE scan_runs
		SET status = $2,
		    completed_at = $3,
		    items_scanned = $4,
		    items_failed = $5,
		    error = $6
		WHERE id = $1
		  AND status = 'RUNNING'
	`

	queryFindRunningScanRun = `
		SELECT ` + scanRunColumns + `
		FROM scan_runs
		WHERE status = 'RUNNING'
		ORDER BY started_at DESC
		LIMIT 1
	`

	queryFindLastCompletedScanRun = `
		SELECT ` + scanRunColumns + `
		FROM scan_runs
		WHERE status = 'COMPLETED'
		ORDER BY completed_at DESC
		LIMIT 1
	`

	queryListRecentScanRuns = `
		SELECT ` + scanRunColumns + `
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	queryCountScanRuns = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE status = 'FAILED')
		FROM scan_runs
	`
)

// ScanRunAdapter implements storage.ScanRunStore using PostgreSQL.
// The scan_runs row is the only record of whether a scan is in flight.
type ScanRunAdapter struct {
	db *sql.DB
}

// NewScanRunAdapter creates a ScanRunAdapter sharing the given connection.
func NewScanRunAdapter(db *sql.DB) *ScanRunAdapter {
	return &ScanRunAdapter{db: db}
}

func (a *ScanRunAdapter) CreateScanRun(ctx context.Context, run v1.ScanRun) error {
	_, err := a.db.ExecContext(ctx, queryCreateScanRun, run.ID, string(run.Status), run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create scan run: %w", err)
	}

	slog.Debug("[Postgres] Created scan run", "scan_run_id", run.ID)
	return nil
}

// UpdateScanRun finalizes a RUNNING run. Returns storage.ErrNotFound when no RUNNING row matched.
func (a *ScanRunAdapter) UpdateScanRun(ctx context.Context, id string, update v1.ScanRunUpdate) error {
	if !update.Status.Terminal() {
		return fmt.Errorf("scan run update needs a terminal status, got %q", update.Status)
	}

	res, err := a.db.ExecContext(ctx, queryUpdateScanRun,
		id,
		string(update.Status),
		update.CompletedAt.UTC(),
		nullInt(update.ItemsScanned),
		nullInt(update.ItemsFailed),
		nullString(update.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to update scan run %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (a *ScanRunAdapter) FindRunningScanRun(ctx context.Context) (*v1.ScanRun, error) {
	return a.findOne(ctx, queryFindRunningScanRun)
}

func (a *ScanRunAdapter) FindLastCompletedScanRun(ctx context.Context) (*v1.ScanRun, error) {
	return a.findOne(ctx, queryFindLastCompletedScanRun)
}

func (a *ScanRunAdapter) findOne(ctx context.Context, query string) (*v1.ScanRun, error) {
	run, err := scanScanRunRow(a.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan run: %w", err)
	}
	return run, nil
}

// ListRecentScanRuns returns up to limit runs, newest first.
func (a *ScanRunAdapter) ListRecentScanRuns(ctx context.Context, limit int) ([]v1.ScanRun, error) {
	rows, err := a.db.QueryContext(ctx, queryListRecentScanRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scan runs: %w", err)
	}
	defer rows.Close()

	var runs []v1.ScanRun
	for rows.Next() {
		run, err := scanScanRunRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan runs: %w", err)
	}
	return runs, nil
}

func (a *ScanRunAdapter) CountScanRuns(ctx context.Context) (v1.ScanRunCounts, error) {
	var c v1.ScanRunCounts
	if err := a.db.QueryRowContext(ctx, queryCountScanRuns).Scan(&c.Total, &c.Completed, &c.Failed); err != nil {
		return v1.ScanRunCounts{}, fmt.Errorf("failed to count scan runs: %w", err)
	}
	return c, nil
}
