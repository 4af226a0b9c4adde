package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/stretchr/testify/require"
)

func newTestEngine(now time.Time) *Engine {
	return NewEngine(ict).WithClock(func() time.Time { return now })
}

func sales(buckets []Bucket) []int64 {
	out := make([]int64, len(buckets))
	for i, b := range buckets {
		out[i] = b.Sales
	}
	return out
}

func indexes(buckets []Bucket) []int {
	out := make([]int, len(buckets))
	for i, b := range buckets {
		out[i] = b.Index
	}
	return out
}

func local(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, ict)
}

func TestBreakdown_HourOfDayToday(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(local(2026, 3, 3, 23, 5), 95),
		snap(local(2026, 3, 4, 8, 5), 100),
		snap(local(2026, 3, 4, 9, 5), 103),
		snap(local(2026, 3, 4, 10, 5), 110),
	}

	got, err := engine.Breakdown(series, HourOfDay, 0)
	require.NoError(t, err)

	// current day stops at the current hour
	require.Len(t, got.Buckets, 11)
	want := make([]int64, 11)
	want[8], want[9], want[10] = 5, 3, 7
	if diff := cmp.Diff(want, sales(got.Buckets)); diff != "" {
		t.Errorf("hourly sales mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, "08", got.Buckets[8].Label)
	require.NotNil(t, got.Period)
	require.True(t, got.Period.Start.Equal(local(2026, 3, 4, 0, 0)))
}

func TestBreakdown_HourOfDayPreviousDayIsFull(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(local(2026, 3, 3, 12, 0), 10),
		snap(local(2026, 3, 3, 23, 30), 14),
		snap(local(2026, 3, 4, 9, 0), 40),
	}

	got, err := engine.Breakdown(series, HourOfDay, 1)
	require.NoError(t, err)
	require.Len(t, got.Buckets, 24)

	summary := Summarize(got.Buckets)
	require.Equal(t, int64(4), summary.Total)
	require.Equal(t, 23, summary.PeakIndex)
}

func TestBreakdown_CounterResetIsClamped(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(local(2026, 3, 4, 1, 0), 100),
		snap(local(2026, 3, 4, 2, 0), 40),
		snap(local(2026, 3, 4, 3, 0), 45),
	}

	got, err := engine.Breakdown(series, HourOfDay, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), got.Buckets[2].Sales)
	require.Equal(t, int64(5), got.Buckets[3].Sales)
	for _, b := range got.Buckets {
		require.GreaterOrEqual(t, b.Sales, int64(0))
	}
}

func TestBreakdown_DayOfWeekCurrentWeek(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(local(2026, 3, 1, 20, 0), 10), // Sunday, previous week
		snap(local(2026, 3, 2, 20, 0), 12),
		snap(local(2026, 3, 3, 20, 0), 18),
		snap(local(2026, 3, 4, 9, 0), 19),
	}

	got, err := engine.Breakdown(series, DayOfWeek, 0)
	require.NoError(t, err)

	if diff := cmp.Diff([]int{1, 2, 3}, indexes(got.Buckets)); diff != "" {
		t.Errorf("weekday order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{2, 6, 1}, sales(got.Buckets)); diff != "" {
		t.Errorf("weekday sales mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "Mon", got.Buckets[0].Label)
}

func TestBreakdown_DayOfWeekPreviousWeekEndsOnSunday(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(local(2026, 2, 28, 10, 0), 50),
		snap(local(2026, 3, 1, 10, 0), 58),
	}

	got, err := engine.Breakdown(series, DayOfWeek, 1)
	require.NoError(t, err)

	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6, 0}, indexes(got.Buckets)); diff != "" {
		t.Errorf("weekday order mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, int64(8), got.Buckets[6].Sales)
	require.Equal(t, "Sun", got.Buckets[6].Label)
}

func TestBreakdown_DayOfMonthPreviousMonth(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(local(2026, 1, 31, 22, 0), 100),
		snap(local(2026, 2, 1, 1, 0), 102),
		snap(local(2026, 2, 28, 23, 0), 110),
		snap(local(2026, 3, 1, 1, 0), 111),
	}

	got, err := engine.Breakdown(series, DayOfMonth, 1)
	require.NoError(t, err)

	require.Len(t, got.Buckets, 28)
	require.Equal(t, 1, got.Buckets[0].Index)
	require.Equal(t, int64(2), got.Buckets[0].Sales)
	require.Equal(t, int64(8), got.Buckets[27].Sales)
	require.Equal(t, int64(10), Summarize(got.Buckets).Total)
}

func TestBreakdown_DayOfMonthCurrentMonthIsFullLength(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)

	got, err := engine.Breakdown(nil, DayOfMonth, 0)
	require.NoError(t, err)
	require.Len(t, got.Buckets, 31)
}

func TestBreakdown_MonthOfYearSpansAllHistory(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(local(2024, 12, 31, 12, 0), 10),
		snap(local(2025, 1, 15, 12, 0), 20),
		snap(local(2026, 1, 15, 12, 0), 25),
		snap(local(2026, 3, 2, 12, 0), 40),
	}

	got, err := engine.Breakdown(series, MonthOfYear, 0)
	require.NoError(t, err)

	want := make([]int64, 12)
	want[0] = 15 // both Januaries
	want[2] = 15
	if diff := cmp.Diff(want, sales(got.Buckets)); diff != "" {
		t.Errorf("monthly sales mismatch (-want +got):\n%s", diff)
	}
	require.Nil(t, got.Period)
	require.Equal(t, "Jan", got.Buckets[0].Label)
}

func TestBreakdown_TooFewSnapshotsYieldZeroBuckets(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)

	for _, series := range [][]v1.Snapshot{nil, {snap(local(2026, 3, 4, 1, 0), 500)}} {
		for _, g := range []Granularity{HourOfDay, DayOfWeek, DayOfMonth, MonthOfYear} {
			got, err := engine.Breakdown(series, g, 0)
			require.NoError(t, err)
			require.NotEmpty(t, got.Buckets)

			summary := Summarize(got.Buckets)
			require.Equal(t, int64(0), summary.Total)
			require.Equal(t, 0, summary.PeakIndex)
			require.Zero(t, summary.PeakSales)
		}
	}
}

func TestBreakdown_BucketsSumToPeriodDeltas(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(local(2026, 3, 4, 0, 10), 1000),
		snap(local(2026, 3, 4, 1, 10), 1004),
		snap(local(2026, 3, 4, 1, 50), 1001),
		snap(local(2026, 3, 4, 2, 10), 1009),
		snap(local(2026, 3, 4, 5, 40), 1020),
		snap(local(2026, 3, 4, 10, 20), 1031),
	}

	got, err := engine.Breakdown(series, HourOfDay, 0)
	require.NoError(t, err)

	var want int64
	for _, d := range Deltas(series) {
		want += d.Sales
	}
	require.Equal(t, want, Summarize(got.Buckets).Total)
}

func TestBreakdown_UsesDisplayTimezone(t *testing.T) {
	engine := newTestEngine(wednesdayMorning)
	series := []v1.Snapshot{
		snap(time.Date(2026, 3, 3, 17, 30, 0, 0, time.UTC), 10),
		snap(time.Date(2026, 3, 3, 18, 30, 0, 0, time.UTC), 13),
	}

	got, err := engine.Breakdown(series, HourOfDay, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), got.Buckets[1].Sales)
}

func TestBreakdown_InvalidOffset(t *testing.T) {
	_, err := newTestEngine(wednesdayMorning).Breakdown(nil, DayOfWeek, -2)
	require.ErrorIs(t, err, ErrInvalidWindow)
}
