package postgres

import (
	"database/sql"

	"github.com/salestrack-lab/salestrack/internal/core/storage"
)

// Store bundles the adapters sharing one connection pool into a storage.Store.
type Store struct {
	*Adapter
	*ScanRunAdapter
}

var _ storage.Store = (*Store)(nil)

// NewStore prepares the item and snapshot adapter on db and attaches the scan run adapter.
func NewStore(db *sql.DB) (*Store, error) {
	adapter, err := NewAdapter(db)
	if err != nil {
		return nil, err
	}
	return &Store{Adapter: adapter, ScanRunAdapter: NewScanRunAdapter(db)}, nil
}
