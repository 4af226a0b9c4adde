package storagemocks

import (
	"context"
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/salestrack-lab/salestrack/internal/core/storage"
	"github.com/stretchr/testify/mock"
)

// Store is a testify mock of storage.Store.
type Store struct {
	mock.Mock
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a Store mock whose expectations are asserted on cleanup.
func NewStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *Store {
	m := &Store{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Store) UpsertItems(ctx context.Context, items []v1.Item) (int, error) {
	ret := _m.Called(ctx, items)
	return ret.Int(0), ret.Error(1)
}

func (_m *Store) ListItems(ctx context.Context) ([]v1.Item, error) {
	ret := _m.Called(ctx)
	var r0 []v1.Item
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]v1.Item)
	}
	return r0, ret.Error(1)
}

func (_m *Store) GetItem(ctx context.Context, id string) (*v1.Item, error) {
	ret := _m.Called(ctx, id)
	var r0 *v1.Item
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*v1.Item)
	}
	return r0, ret.Error(1)
}

func (_m *Store) ListScanTargets(ctx context.Context) ([]v1.ScanTarget, error) {
	ret := _m.Called(ctx)
	var r0 []v1.ScanTarget
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]v1.ScanTarget)
	}
	return r0, ret.Error(1)
}

func (_m *Store) UpdateItemDetails(ctx context.Context, id string, author, category *string) error {
	ret := _m.Called(ctx, id, author, category)
	return ret.Error(0)
}

func (_m *Store) AppendSnapshot(ctx context.Context, snapshot v1.Snapshot) error {
	ret := _m.Called(ctx, snapshot)
	return ret.Error(0)
}

func (_m *Store) ListSnapshots(ctx context.Context, itemID string, since time.Time) ([]v1.Snapshot, error) {
	ret := _m.Called(ctx, itemID, since)
	var r0 []v1.Snapshot
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]v1.Snapshot)
	}
	return r0, ret.Error(1)
}

func (_m *Store) ListSnapshotsBatch(ctx context.Context, itemIDs []string, since time.Time) (map[string][]v1.Snapshot, error) {
	ret := _m.Called(ctx, itemIDs, since)
	var r0 map[string][]v1.Snapshot
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string][]v1.Snapshot)
	}
	return r0, ret.Error(1)
}

func (_m *Store) LatestSnapshots(ctx context.Context, itemIDs []string) (map[string]v1.Snapshot, error) {
	ret := _m.Called(ctx, itemIDs)
	var r0 map[string]v1.Snapshot
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]v1.Snapshot)
	}
	return r0, ret.Error(1)
}

func (_m *Store) OldestSnapshotTime(ctx context.Context) (*time.Time, error) {
	ret := _m.Called(ctx)
	var r0 *time.Time
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*time.Time)
	}
	return r0, ret.Error(1)
}

func (_m *Store) NewestSnapshotTime(ctx context.Context) (*time.Time, error) {
	ret := _m.Called(ctx)
	var r0 *time.Time
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*time.Time)
	}
	return r0, ret.Error(1)
}

func (_m *Store) CreateScanRun(ctx context.Context, run v1.ScanRun) error {
	ret := _m.Called(ctx, run)
	return ret.Error(0)
}

func (_m *Store) UpdateScanRun(ctx context.Context, id string, update v1.ScanRunUpdate) error {
	ret := _m.Called(ctx, id, update)
	return ret.Error(0)
}

func (_m *Store) FindRunningScanRun(ctx context.Context) (*v1.ScanRun, error) {
	ret := _m.Called(ctx)
	var r0 *v1.ScanRun
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*v1.ScanRun)
	}
	return r0, ret.Error(1)
}

func (_m *Store) FindLastCompletedScanRun(ctx context.Context) (*v1.ScanRun, error) {
	ret := _m.Called(ctx)
	var r0 *v1.ScanRun
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*v1.ScanRun)
	}
	return r0, ret.Error(1)
}

func (_m *Store) ListRecentScanRuns(ctx context.Context, limit int) ([]v1.ScanRun, error) {
	ret := _m.Called(ctx, limit)
	var r0 []v1.ScanRun
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]v1.ScanRun)
	}
	return r0, ret.Error(1)
}

func (_m *Store) CountScanRuns(ctx context.Context) (v1.ScanRunCounts, error) {
	ret := _m.Called(ctx)
	return ret.Get(0).(v1.ScanRunCounts), ret.Error(1)
}
