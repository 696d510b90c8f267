package usecases

import (
	"fmt"
	"time"
)

// WindowKind names a reporting period relative to "now".
type WindowKind string

const (
	WindowToday     WindowKind = "today"
	WindowYesterday WindowKind = "yesterday"
	WindowThisWeek  WindowKind = "thisWeek"
	WindowLastWeek  WindowKind = "lastWeek"
	WindowThisMonth WindowKind = "thisMonth"
	WindowLastMonth WindowKind = "lastMonth"
	WindowAllTime   WindowKind = "allTime"
)

type granularity int

const (
	granularityNone granularity = iota
	granularityDay
	granularityWeek
	granularityMonth
)

// TimeWindow is a resolved [Start, End) range. The all-time window has
// zero bounds and contains every instant.
type TimeWindow struct {
	Kind  WindowKind
	Name  string
	Start time.Time
	End   time.Time

	grain granularity
}

// ResolveWindow computes the concrete range for kind at now in loc.
// Weeks start on Sunday 00:00 local time.
func ResolveWindow(kind WindowKind, now time.Time, loc *time.Location) TimeWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	todayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	weekStart := time.Date(y, m, d-int(local.Weekday()), 0, 0, 0, 0, loc)
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)

	switch kind {
	case WindowToday:
		return TimeWindow{Kind: kind, Name: "Today", Start: todayStart, End: todayStart.AddDate(0, 0, 1), grain: granularityDay}
	case WindowYesterday:
		return TimeWindow{Kind: kind, Name: "Yesterday", Start: todayStart.AddDate(0, 0, -1), End: todayStart, grain: granularityDay}
	case WindowThisWeek:
		return TimeWindow{Kind: kind, Name: "This Week", Start: weekStart, End: weekStart.AddDate(0, 0, 7), grain: granularityWeek}
	case WindowLastWeek:
		return TimeWindow{Kind: kind, Name: "Last Week", Start: weekStart.AddDate(0, 0, -7), End: weekStart, grain: granularityWeek}
	case WindowThisMonth:
		return TimeWindow{Kind: kind, Name: "This Month", Start: monthStart, End: monthStart.AddDate(0, 1, 0), grain: granularityMonth}
	case WindowLastMonth:
		return TimeWindow{Kind: kind, Name: "Last Month", Start: monthStart.AddDate(0, -1, 0), End: monthStart, grain: granularityMonth}
	default:
		return TimeWindow{Kind: WindowAllTime, Name: "All Time"}
	}
}

// Bounded reports whether the window has concrete bounds.
func (w TimeWindow) Bounded() bool {
	return w.grain != granularityNone
}

// Contains reports whether t falls in [Start, End).
func (w TimeWindow) Contains(t time.Time) bool {
	if !w.Bounded() {
		return true
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

// Previous returns the adjacent window of the same length ending at w.Start.
// The all-time window has no predecessor and is returned unchanged.
func (w TimeWindow) Previous() TimeWindow {
	p := TimeWindow{End: w.Start, grain: w.grain}
	switch w.grain {
	case granularityDay:
		p.Start = w.Start.AddDate(0, 0, -1)
		p.Kind, p.Name = WindowYesterday, "Previous Day"
		if w.Kind == WindowToday {
			p.Name = "Yesterday"
		}
	case granularityWeek:
		p.Start = w.Start.AddDate(0, 0, -7)
		p.Kind, p.Name = WindowLastWeek, "Previous Week"
		if w.Kind == WindowThisWeek {
			p.Name = "Last Week"
		}
	case granularityMonth:
		p.Start = w.Start.AddDate(0, -1, 0)
		p.Kind, p.Name = WindowLastMonth, "Previous Month"
		if w.Kind == WindowThisMonth {
			p.Name = "Last Month"
		}
	default:
		return w
	}
	return p
}

// Label renders the window name with its explicit date range.
func (w TimeWindow) Label() string {
	if !w.Bounded() {
		return w.Name
	}
	first := w.Start.Format(dateLayout)
	last := w.End.AddDate(0, 0, -1).Format(dateLayout)
	if first == last {
		return fmt.Sprintf("%s (%s)", w.Name, first)
	}
	return fmt.Sprintf("%s (%s to %s)", w.Name, first, last)
}

const dateLayout = "2006-01-02"
