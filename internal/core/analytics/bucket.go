package analytics

import (
	"fmt"
	"strconv"
	"time"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
)

var (
	weekdayOrder = []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// Engine turns snapshot series into dense calendar breakdowns in one display timezone.
type Engine struct {
	loc   *time.Location
	nowFn func() time.Time
}

// NewEngine creates an engine bucketing in loc. A nil loc means UTC.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		loc: loc,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the engine's notion of "now". Used by tests and by callers
// that need several breakdowns to agree on the same instant.
func (e *Engine) WithClock(nowFn func() time.Time) *Engine {
	return &Engine{loc: e.loc, nowFn: nowFn}
}

// Location returns the display timezone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Now returns the engine's current instant.
func (e *Engine) Now() time.Time {
	return e.nowFn()
}

// Window resolves the calendar window for g and offset at the engine's current instant.
func (e *Engine) Window(g Granularity, offset int) (Window, error) {
	return ResolveWindow(g, offset, e.nowFn(), e.loc)
}

// Breakdown buckets the series' deltas for one period.
// Buckets are dense: every slot of the period appears, zero when nothing landed there.
func (e *Engine) Breakdown(series []v1.Snapshot, g Granularity, offset int) (Breakdown, error) {
	w, err := e.Window(g, offset)
	if err != nil {
		return Breakdown{}, err
	}
	return e.BreakdownFor(series, w), nil
}

// BreakdownFor buckets the series' deltas into an already resolved window.
func (e *Engine) BreakdownFor(series []v1.Snapshot, w Window) Breakdown {
	buckets := denseBuckets(w)
	positions := make(map[int]int, len(buckets))
	for i, b := range buckets {
		positions[b.Index] = i
	}

	for _, d := range Deltas(series) {
		local := d.At.In(e.loc)
		if !w.Contains(local) {
			continue
		}
		// Buckets past "now" are not emitted for the current period.
		if pos, ok := positions[bucketIndex(w.Granularity, local)]; ok {
			buckets[pos].Sales += d.Sales
		}
	}

	return Breakdown{
		Granularity: w.Granularity,
		Period:      w.Period(),
		Buckets:     buckets,
	}
}

func bucketIndex(g Granularity, local time.Time) int {
	switch g {
	case HourOfDay:
		return local.Hour()
	case DayOfWeek:
		return int(local.Weekday())
	case DayOfMonth:
		return local.Day()
	case MonthOfYear:
		return int(local.Month()) - 1
	default:
		return -1
	}
}

func denseBuckets(w Window) []Bucket {
	switch w.Granularity {
	case HourOfDay:
		last := 23
		if w.Current {
			last = w.now.Hour()
		}
		buckets := make([]Bucket, 0, last+1)
		for h := 0; h <= last; h++ {
			buckets = append(buckets, Bucket{Index: h, Label: fmt.Sprintf("%02d", h)})
		}
		return buckets

	case DayOfWeek:
		days := len(weekdayOrder)
		if w.Current {
			days = (int(w.now.Weekday())+6)%7 + 1
		}
		buckets := make([]Bucket, 0, days)
		for _, wd := range weekdayOrder[:days] {
			buckets = append(buckets, Bucket{Index: int(wd), Label: wd.String()[:3]})
		}
		return buckets

	case DayOfMonth:
		n := daysInMonth(w.Start)
		buckets := make([]Bucket, 0, n)
		for day := 1; day <= n; day++ {
			buckets = append(buckets, Bucket{Index: day, Label: strconv.Itoa(day)})
		}
		return buckets

	case MonthOfYear:
		buckets := make([]Bucket, 0, len(monthLabels))
		for i, label := range monthLabels {
			buckets = append(buckets, Bucket{Index: i, Label: label})
		}
		return buckets
	}
	return nil
}
