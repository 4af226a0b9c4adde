package analytics

import (
	"sort"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
)

// ClampedDelta returns max(0, newer - older). Counter resets never produce negative sales.
func ClampedDelta(older, newer int64) int64 {
	if newer <= older {
		return 0
	}
	return newer - older
}

// SortDescending returns a copy of series ordered newest first.
// Stores return descending series already; the copy keeps the engine safe against
// out-of-order input without mutating the caller's slice.
func SortDescending(series []v1.Snapshot) []v1.Snapshot {
	sorted := make([]v1.Snapshot, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScannedAt.After(sorted[j].ScannedAt)
	})
	return sorted
}

// Deltas converts a snapshot series into pairwise deltas, newest first.
// N snapshots yield N-1 deltas; the oldest snapshot has no predecessor.
func Deltas(series []v1.Snapshot) []Delta {
	if len(series) < 2 {
		return nil
	}

	sorted := SortDescending(series)
	deltas := make([]Delta, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		current := sorted[i]
		previous := sorted[i+1]
		deltas = append(deltas, Delta{
			At:    current.ScannedAt,
			Sales: ClampedDelta(previous.SalesCount, current.SalesCount),
		})
	}
	return deltas
}
