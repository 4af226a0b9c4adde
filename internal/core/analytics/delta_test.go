package analytics

import (
	"testing"
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(at time.Time, count int64) v1.Snapshot {
	return v1.Snapshot{ItemID: "item-1", ScannedAt: at.UTC(), SalesCount: count}
}

func TestClampedDelta(t *testing.T) {
	tests := []struct {
		name         string
		older, newer int64
		want         int64
	}{
		{name: "increase", older: 100, newer: 120, want: 20},
		{name: "unchanged", older: 100, newer: 100, want: 0},
		{name: "decrease is clamped", older: 120, newer: 100, want: 0},
		{name: "reset to zero is clamped", older: 5000, newer: 0, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClampedDelta(tc.older, tc.newer))
		})
	}
}

func TestDeltas_PairwiseNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	series := []v1.Snapshot{
		snap(base.Add(3*time.Hour), 110),
		snap(base.Add(2*time.Hour), 90), // drop: counter glitch
		snap(base.Add(1*time.Hour), 100),
		snap(base, 95),
	}

	deltas := Deltas(series)
	require.Len(t, deltas, 3)

	assert.Equal(t, base.Add(3*time.Hour), deltas[0].At)
	assert.Equal(t, int64(20), deltas[0].Sales)
	assert.Equal(t, int64(0), deltas[1].Sales)
	assert.Equal(t, int64(5), deltas[2].Sales)

	for _, d := range deltas {
		assert.GreaterOrEqual(t, d.Sales, int64(0))
	}
}

func TestDeltas_FewerThanTwoSnapshots(t *testing.T) {
	require.Empty(t, Deltas(nil))
	require.Empty(t, Deltas([]v1.Snapshot{snap(time.Now(), 10)}))
}

func TestDeltas_OutOfOrderInputMatchesSorted(t *testing.T) {
	base := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	sorted := []v1.Snapshot{
		snap(base.Add(2*time.Hour), 30),
		snap(base.Add(1*time.Hour), 20),
		snap(base, 10),
	}
	shuffled := []v1.Snapshot{sorted[1], sorted[2], sorted[0]}

	require.Equal(t, Deltas(sorted), Deltas(shuffled))
	// input must not be reordered in place
	require.Equal(t, int64(20), shuffled[0].SalesCount)
}
