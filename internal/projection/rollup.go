package projection

import (
	"github.com/salestrack-lab/salestrack/internal/core/analytics"
)

// rollup sums the item breakdowns bucket by bucket into portfolio totals.
// template is the dense, zero-filled bucket sequence of the same window; every report shares its layout.
func rollup(reports []analytics.ItemReport, template []analytics.Bucket) Totals {
	buckets := make([]analytics.Bucket, len(template))
	copy(buckets, template)

	positions := make(map[int]int, len(buckets))
	for i, b := range buckets {
		positions[b.Index] = i
	}

	var (
		topID    string
		topTotal int64
	)
	for _, r := range reports {
		for _, b := range r.Buckets {
			if pos, ok := positions[b.Index]; ok {
				buckets[pos].Sales += b.Sales
			}
		}
		// Ties keep the first item in listing order.
		if r.Total > topTotal {
			topID = r.ID
			topTotal = r.Total
		}
	}

	summary := analytics.Summarize(buckets)
	return Totals{
		Buckets:   buckets,
		Total:     summary.Total,
		PeakIndex: summary.PeakIndex,
		PeakSales: summary.PeakSales,
		TopItemID: topID,
	}
}
