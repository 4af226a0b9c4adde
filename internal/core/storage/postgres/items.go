package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/salestrack-lab/salestrack/internal/core/storage"
)

// UpsertItems inserts catalog entries in one transaction. Entries whose url already exists are skipped.
func (a *Adapter) UpsertItems(ctx context.Context, items []v1.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin item upsert: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	created := 0
	for i := range items {
		item := items[i]
		if err := item.Validate(); err != nil {
			return 0, fmt.Errorf("invalid catalog item %q: %w", item.URL, err)
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}

		res, err := tx.ExecContext(ctx, queryInsertItem, item.ID, item.SourceID, item.Name, item.URL, now, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert item %q: %w", item.URL, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		created += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit item upsert: %w", err)
	}

	slog.Debug("[Postgres] Upserted items", "submitted", len(items), "created", created)
	return created, nil
}

// ListItems returns every stored item ordered by name.
func (a *Adapter) ListItems(ctx context.Context) ([]v1.Item, error) {
	rows, err := a.stmtListItems.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []v1.Item
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

// GetItem returns storage.ErrNotFound for unknown ids and malformed uuids alike.
func (a *Adapter) GetItem(ctx context.Context, id string) (*v1.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, storage.ErrNotFound
	}

	item, err := scanItemRow(a.stmtGetItem.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListScanTargets returns the id and source id of every item.
func (a *Adapter) ListScanTargets(ctx context.Context) ([]v1.ScanTarget, error) {
	rows, err := a.stmtListScanTargets.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan targets: %w", err)
	}
	defer rows.Close()

	var targets []v1.ScanTarget
	for rows.Next() {
		var t v1.ScanTarget
		if err := rows.Scan(&t.ItemID, &t.SourceID); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}
		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan targets: %w", err)
	}
	return targets, nil
}

// UpdateItemDetails refreshes author and category. Nil arguments keep the stored value.
func (a *Adapter) UpdateItemDetails(ctx context.Context, id string, author, category *string) error {
	res, err := a.stmtUpdateItemDetails.ExecContext(ctx, id, nullString(author), nullString(category), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", id, err)
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
