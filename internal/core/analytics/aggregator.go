package analytics

import (
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/shopspring/decimal"
)

// Summary holds the period-level figures derived from a dense bucket sequence.
type Summary struct {
	Total     int64 `json:"total"`
	PeakIndex int   `json:"peak_index"`
	PeakSales int64 `json:"peak_sales"`
}

// Summarize totals the buckets and picks the peak.
// Ties go to the lowest bucket index regardless of display order; an all-zero sequence peaks at index 0 with 0 sales.
func Summarize(buckets []Bucket) Summary {
	var s Summary
	for _, b := range buckets {
		s.Total += b.Sales
		if b.Sales <= 0 {
			continue
		}
		if b.Sales > s.PeakSales || (b.Sales == s.PeakSales && b.Index < s.PeakIndex) {
			s.PeakIndex = b.Index
			s.PeakSales = b.Sales
		}
	}
	return s
}

// Growth compares the newer half of the raw delta series against the older half.
// deltas must be newest first, as returned by Deltas. Bucket boundaries are ignored.
func Growth(deltas []Delta) float64 {
	half := len(deltas) / 2

	var recent, previous int64
	for i, d := range deltas {
		if i < half {
			recent += d.Sales
		} else {
			previous += d.Sales
		}
	}
	return GrowthFromSums(recent, previous)
}

// GrowthFromSums returns (recent-previous)/previous*100, or 0 when previous is 0.
func GrowthFromSums(recent, previous int64) float64 {
	if previous <= 0 {
		return 0
	}
	return float64(recent-previous) / float64(previous) * 100
}

// ItemReport is the per-item analytics record for one granularity and period.
type ItemReport struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Author   *string `json:"author,omitempty"`
	Category *string `json:"category,omitempty"`

	LatestSales int64            `json:"latest_sales"`
	LatestPrice *decimal.Decimal `json:"latest_price,omitempty"`
	LastScanned *time.Time       `json:"last_scanned,omitempty"`

	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
	Total       int64       `json:"total"`
	PeakIndex   int         `json:"peak_index"`
	PeakSales   int64       `json:"peak_sales"`
	Growth      float64     `json:"growth"`

	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`

	// HasOlderData is true when snapshots exist before this period, so a previous period can be requested.
	HasOlderData bool `json:"has_older_data"`
}

// Report builds the full record for one item.
// latest is the item's most recent snapshot overall; when nil the newest snapshot of series is used.
func (e *Engine) Report(item v1.Item, series []v1.Snapshot, latest *v1.Snapshot, w Window) ItemReport {
	breakdown := e.BreakdownFor(series, w)
	summary := Summarize(breakdown.Buckets)

	report := ItemReport{
		ID:          item.ID,
		Name:        item.Name,
		URL:         item.URL,
		Author:      item.Author,
		Category:    item.Category,
		Granularity: breakdown.Granularity,
		Buckets:     breakdown.Buckets,
		Total:       summary.Total,
		PeakIndex:   summary.PeakIndex,
		PeakSales:   summary.PeakSales,
		Growth:      Growth(Deltas(series)),
	}

	if latest == nil && len(series) > 0 {
		newest := SortDescending(series)[0]
		latest = &newest
	}
	if latest != nil {
		scannedAt := latest.ScannedAt.UTC()
		report.LatestSales = latest.SalesCount
		report.LatestPrice = latest.Price
		report.LastScanned = &scannedAt
	}

	if p := breakdown.Period; p != nil {
		start, end := p.Start, p.End
		report.PeriodStart = &start
		report.PeriodEnd = &end
	}

	return report
}
