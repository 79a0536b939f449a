package ledger

import "time"

// =============================================================================
// DAILY WINDOW - Half-open local-day interval [start, start+24h)
// =============================================================================

// Window is a half-open time interval. Every daily aggregate and the cap
// check use the same window so "today" means one thing on both paths.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowResolver maps an instant to the local calendar day containing it.
// The timezone is fixed at construction; "now" is always passed in
// explicitly so resolution is deterministic under test.
type WindowResolver struct {
	loc *time.Location
}

func NewWindowResolver(loc *time.Location) WindowResolver {
	if loc == nil {
		loc = time.UTC
	}
	return WindowResolver{loc: loc}
}

// DayOf returns [startOfDay, startOfDay+1day) for the day containing now.
func (r WindowResolver) DayOf(now time.Time) Window {
	local := now.In(r.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}
