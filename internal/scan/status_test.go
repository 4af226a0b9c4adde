package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatus_RunningScan(t *testing.T) {
	h := newHarness(t, nil)
	last := completedAt("run-0", testNow.Add(-time.Hour))
	recent := []v1.ScanRun{*runStartedAt("run-1", testNow.Add(-90*time.Second)), *last}

	h.store.On("FindRunningScanRun", mock.Anything).Return(runStartedAt("run-1", testNow.Add(-90*time.Second)), nil).Once()
	h.store.On("FindLastCompletedScanRun", mock.Anything).Return(last, nil).Once()
	h.store.On("CountScanRuns", mock.Anything).Return(v1.ScanRunCounts{Total: 10, Completed: 8, Failed: 1}, nil).Once()
	h.store.On("ListRecentScanRuns", mock.Anything, 10).Return(recent, nil).Once()

	st, err := h.orch.Status(context.Background())
	require.NoError(t, err)

	assert.True(t, st.IsRunning)
	require.NotNil(t, st.CurrentScan)
	assert.Equal(t, "run-1", st.CurrentScan.ID)
	assert.Equal(t, int64(90), st.CurrentScan.DurationSeconds)
	assert.Equal(t, "run-0", st.LastSuccessfulScan.ID)
	assert.Equal(t, int64(10), st.TotalScans)
	assert.Equal(t, int64(8), st.SuccessfulScans)
	assert.Equal(t, int64(1), st.FailedScans)
	assert.Equal(t, 80, st.SuccessRate)
	assert.Len(t, st.RecentScans, 2)
}

func TestStatus_NoHistory(t *testing.T) {
	h := newHarness(t, nil)
	h.store.On("FindRunningScanRun", mock.Anything).Return(nil, nil).Once()
	h.store.On("FindLastCompletedScanRun", mock.Anything).Return(nil, nil).Once()
	h.store.On("CountScanRuns", mock.Anything).Return(v1.ScanRunCounts{}, nil).Once()
	h.store.On("ListRecentScanRuns", mock.Anything, 10).Return(nil, nil).Once()

	st, err := h.orch.Status(context.Background())
	require.NoError(t, err)

	assert.False(t, st.IsRunning)
	assert.Nil(t, st.CurrentScan)
	assert.Nil(t, st.LastSuccessfulScan)
	assert.Zero(t, st.SuccessRate)
	assert.NotNil(t, st.RecentScans)
}

func TestStatus_StoreError(t *testing.T) {
	h := newHarness(t, nil)
	h.store.On("FindRunningScanRun", mock.Anything).Return(nil, nil).Once()
	h.store.On("FindLastCompletedScanRun", mock.Anything).Return(nil, nil).Once()
	h.store.On("CountScanRuns", mock.Anything).Return(v1.ScanRunCounts{}, errors.New("db down")).Once()

	_, err := h.orch.Status(context.Background())
	require.ErrorContains(t, err, "counting scans")
}
