package analytics

import (
	"fmt"
	"time"
)

// Window is a resolved calendar period in the display timezone.
type Window struct {
	Granularity Granularity

	// Start and End are local midnights, End exclusive. Zero for MonthOfYear, which is unbounded.
	Start time.Time
	End   time.Time

	// Current is true when the window contains "now"; hour and weekday breakdowns
	// stop at the current hour/day instead of zero-filling the future.
	Current bool

	now time.Time
}

// Bounded reports whether the window restricts deltas to [Start, End).
func (w Window) Bounded() bool {
	return !w.Start.IsZero()
}

// Contains reports whether t (any zone) falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Bounded() {
		return true
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

// Period returns the window as UTC instants, or nil when unbounded.
func (w Window) Period() *Period {
	if !w.Bounded() {
		return nil
	}
	return &Period{Start: w.Start.UTC(), End: w.End.UTC()}
}

// ResolveWindow computes the calendar window for a granularity.
// offset counts periods back from the current one: days for HourOfDay, weeks for DayOfWeek,
// months for DayOfMonth. It is ignored for MonthOfYear.
func ResolveWindow(g Granularity, offset int, now time.Time, loc *time.Location) (Window, error) {
	if offset < 0 {
		return Window{}, fmt.Errorf("%w: offset must be >= 0, got %d", ErrInvalidWindow, offset)
	}
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	y, m, d := local.Date()

	w := Window{Granularity: g, now: local}
	switch g {
	case HourOfDay:
		w.Start = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		w.End = time.Date(y, m, d-offset+1, 0, 0, 0, 0, loc)
	case DayOfWeek:
		sinceMonday := (int(local.Weekday()) + 6) % 7
		w.Start = time.Date(y, m, d-sinceMonday-7*offset, 0, 0, 0, 0, loc)
		w.End = time.Date(y, m, d-sinceMonday-7*offset+7, 0, 0, 0, 0, loc)
	case DayOfMonth:
		w.Start = time.Date(y, m-time.Month(offset), 1, 0, 0, 0, 0, loc)
		w.End = time.Date(y, m-time.Month(offset)+1, 1, 0, 0, 0, 0, loc)
	case MonthOfYear:
		return w, nil
	default:
		return Window{}, fmt.Errorf("%w: unknown granularity %q", ErrInvalidWindow, g)
	}

	w.Current = w.Contains(local)
	return w, nil
}

// daysInMonth returns the length of t's calendar month in t's location.
func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
