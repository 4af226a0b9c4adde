package analytics

import (
	"errors"
	"fmt"
	"time"
)

// Granularity selects which calendar field a delta is bucketed by.
type Granularity string

const (
	HourOfDay   Granularity = "hour"     // 24 buckets, one local calendar day
	DayOfWeek   Granularity = "weekday"  // 7 buckets Mon..Sun, one Monday-first week
	DayOfMonth  Granularity = "monthday" // 1..N buckets, one calendar month
	MonthOfYear Granularity = "month"    // 12 buckets across the whole series
)

// ErrInvalidWindow marks a malformed period request (negative offset, unknown granularity,
// non-positive lookback).
var ErrInvalidWindow = errors.New("invalid analytics window")

// ParseGranularity maps a request string to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case HourOfDay, DayOfWeek, DayOfMonth, MonthOfYear:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown granularity %q", ErrInvalidWindow, s)
	}
}

// Bucket is one calendar-aligned slot of a breakdown.
// Index is the calendar field value: hour 0-23, Go weekday (Sun=0), day of month 1-31, month 0-11.
type Bucket struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Sales int64  `json:"sales"`
}

// Period is the concrete [Start, End) range a breakdown covers, as UTC instants.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Breakdown is the dense bucket sequence for one item and one period.
type Breakdown struct {
	Granularity Granularity `json:"granularity"`
	Period      *Period     `json:"period,omitempty"`
	Buckets     []Bucket    `json:"buckets"`
}

// Delta is the clamped sales difference between two adjacent snapshots,
// attributed to the newer snapshot's instant.
type Delta struct {
	At    time.Time
	Sales int64
}
