package postgres

import (
	"database/sql"
	"fmt"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanItemRow scans an itemColumns row. Compatible with both sql.Row and sql.Rows.
func scanItemRow(row scanner) (*v1.Item, error) {
	var item v1.Item
	var author, category sql.NullString

	err := row.Scan(
		&item.ID,
		&item.SourceID,
		&item.Name,
		&item.URL,
		&author,
		&category,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan item row: %w", err)
	}

	item.Author = stringPtr(author)
	item.Category = stringPtr(category)
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

// scanSnapshotRow scans a snapshotColumns row. A NULL price stays nil.
func scanSnapshotRow(row scanner) (v1.Snapshot, error) {
	var snap v1.Snapshot
	var price decimal.NullDecimal

	if err := row.Scan(&snap.ItemID, &snap.ScannedAt, &snap.SalesCount, &price); err != nil {
		return v1.Snapshot{}, fmt.Errorf("failed to scan snapshot row: %w", err)
	}

	snap.ScannedAt = snap.ScannedAt.UTC()
	if price.Valid {
		p := price.Decimal
		snap.Price = &p
	}
	return snap, nil
}

// scanScanRunRow scans a scanRunColumns row.
func scanScanRunRow(row scanner) (*v1.ScanRun, error) {
	var run v1.ScanRun
	var status string
	var completedAt sql.NullTime
	var itemsScanned, itemsFailed sql.NullInt64
	var errMsg sql.NullString

	err := row.Scan(
		&run.ID,
		&status,
		&run.StartedAt,
		&completedAt,
		&itemsScanned,
		&itemsFailed,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	run.Status = v1.ScanStatus(status)
	run.StartedAt = run.StartedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		run.CompletedAt = &t
	}
	run.ItemsScanned = intPtr(itemsScanned)
	run.ItemsFailed = intPtr(itemsFailed)
	run.Error = stringPtr(errMsg)
	return &run, nil
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullPrice(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *p, Valid: true}
}
