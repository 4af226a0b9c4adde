package projection

import (
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/salestrack-lab/salestrack/internal/core/analytics"
	"github.com/shopspring/decimal"
)

// View names the analytics pages served over HTTP.
type View string

const (
	ViewDaily   View = "daily"
	ViewWeekly  View = "weekly"
	ViewMonthly View = "monthly"
	ViewYearly  View = "yearly"
)

// Granularity maps a view to the bucketing it uses.
func (v View) Granularity() (analytics.Granularity, bool) {
	switch v {
	case ViewDaily:
		return analytics.HourOfDay, true
	case ViewWeekly:
		return analytics.DayOfWeek, true
	case ViewMonthly:
		return analytics.DayOfMonth, true
	case ViewYearly:
		return analytics.MonthOfYear, true
	default:
		return "", false
	}
}

// cacheTag groups every cached entry of one view for invalidation.
func (v View) cacheTag() string {
	return string(v) + "-analytics"
}

const tagDataRange = "data-range"

// Query selects one analytics page.
type Query struct {
	View View

	// Offset counts periods back: days for daily, weeks for weekly, months for monthly. Ignored for yearly.
	Offset int

	// LookbackDays bounds the snapshot history loaded for growth. Zero uses the view's default.
	LookbackDays int
}

// Totals is the portfolio rollup across every item of a report.
type Totals struct {
	Buckets   []analytics.Bucket `json:"buckets"`
	Total     int64              `json:"total"`
	PeakIndex int                `json:"peak_index"`
	PeakSales int64              `json:"peak_sales"`
	TopItemID string             `json:"top_item_id,omitempty"`
}

// Report is the response of one analytics page.
type Report struct {
	View         View                   `json:"view"`
	Granularity  analytics.Granularity  `json:"granularity"`
	Offset       int                    `json:"offset"`
	LookbackDays int                    `json:"lookback_days"`
	Timezone     string                 `json:"timezone"`
	PeriodStart  *time.Time             `json:"period_start,omitempty"`
	PeriodEnd    *time.Time             `json:"period_end,omitempty"`
	HasOlderData bool                   `json:"has_older_data"`
	Items        []analytics.ItemReport `json:"items"`
	Totals       Totals                 `json:"totals"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// ItemSummary is a tracked item with its latest observation.
type ItemSummary struct {
	v1.Item
	LatestSales *int64           `json:"latest_sales,omitempty"`
	LatestPrice *decimal.Decimal `json:"latest_price,omitempty"`
	LastScanned *time.Time       `json:"last_scanned,omitempty"`
}

// DataRange reports the span of stored history.
type DataRange struct {
	Type      string     `json:"type"`
	Timestamp *time.Time `json:"timestamp"`
}
