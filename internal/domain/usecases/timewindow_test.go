package usecases

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return ts
}

func TestResolveWindow_FixedNow(t *testing.T) {
	// Friday
	now := mustTime(t, "2024-03-15T10:00:00Z")

	tests := []struct {
		kind  WindowKind
		start string
		end   string
	}{
		{WindowToday, "2024-03-15T00:00:00Z", "2024-03-16T00:00:00Z"},
		{WindowYesterday, "2024-03-14T00:00:00Z", "2024-03-15T00:00:00Z"},
		{WindowThisWeek, "2024-03-10T00:00:00Z", "2024-03-17T00:00:00Z"},
		{WindowLastWeek, "2024-03-03T00:00:00Z", "2024-03-10T00:00:00Z"},
		{WindowThisMonth, "2024-03-01T00:00:00Z", "2024-04-01T00:00:00Z"},
		{WindowLastMonth, "2024-02-01T00:00:00Z", "2024-03-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w := ResolveWindow(tt.kind, now, time.UTC)
			if !w.Start.Equal(mustTime(t, tt.start)) {
				t.Errorf("start: expected %s, got %s", tt.start, w.Start)
			}
			if !w.End.Equal(mustTime(t, tt.end)) {
				t.Errorf("end: expected %s, got %s", tt.end, w.End)
			}
			if !w.Start.Before(w.End) {
				t.Error("start must precede end")
			}

			again := ResolveWindow(tt.kind, now, time.UTC)
			if !again.Start.Equal(w.Start) || !again.End.Equal(w.End) {
				t.Error("resolution should be deterministic")
			}
		})
	}
}

func TestResolveWindow_AdjacentWindowsAreContiguous(t *testing.T) {
	now := mustTime(t, "2024-03-15T10:00:00Z")

	pairs := [][2]WindowKind{
		{WindowYesterday, WindowToday},
		{WindowLastWeek, WindowThisWeek},
		{WindowLastMonth, WindowThisMonth},
	}
	for _, p := range pairs {
		prev := ResolveWindow(p[0], now, time.UTC)
		cur := ResolveWindow(p[1], now, time.UTC)
		if !prev.End.Equal(cur.Start) {
			t.Errorf("%s end %s should equal %s start %s", p[0], prev.End, p[1], cur.Start)
		}
		if prev.Contains(cur.Start) {
			t.Errorf("%s should not contain %s start", p[0], p[1])
		}
	}
}

func TestResolveWindow_SundayStartsTheWeek(t *testing.T) {
	now := mustTime(t, "2024-03-10T23:59:00Z")
	w := ResolveWindow(WindowThisWeek, now, time.UTC)
	if !w.Start.Equal(mustTime(t, "2024-03-10T00:00:00Z")) {
		t.Errorf("week should start the same Sunday, got %s", w.Start)
	}
}

func TestResolveWindow_LastMonthAcrossYear(t *testing.T) {
	now := mustTime(t, "2024-01-05T08:00:00Z")
	w := ResolveWindow(WindowLastMonth, now, time.UTC)
	if !w.Start.Equal(mustTime(t, "2023-12-01T00:00:00Z")) || !w.End.Equal(mustTime(t, "2024-01-01T00:00:00Z")) {
		t.Errorf("unexpected last month: %s - %s", w.Start, w.End)
	}
}

func TestResolveWindow_UsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 14th is already the 15th in IST
	now := mustTime(t, "2024-03-14T20:00:00Z")

	w := ResolveWindow(WindowToday, now, loc)
	if got := w.Start.Format(dateLayout); got != "2024-03-15" {
		t.Errorf("expected local day 2024-03-15, got %s", got)
	}
}

func TestTimeWindow_AllTime(t *testing.T) {
	w := ResolveWindow(WindowAllTime, time.Now(), time.UTC)
	if w.Bounded() {
		t.Error("all time should be unbounded")
	}
	if !w.Contains(time.Unix(0, 0)) {
		t.Error("all time should contain everything")
	}
	if w.Label() != "All Time" {
		t.Errorf("unexpected label %q", w.Label())
	}
	if p := w.Previous(); p.Bounded() {
		t.Error("all time has no bounded predecessor")
	}
}

func TestTimeWindow_ContainsIsHalfOpen(t *testing.T) {
	now := mustTime(t, "2024-03-15T10:00:00Z")
	w := ResolveWindow(WindowToday, now, time.UTC)

	if !w.Contains(w.Start) {
		t.Error("start should be included")
	}
	if w.Contains(w.End) {
		t.Error("end should be excluded")
	}
}

func TestTimeWindow_Previous(t *testing.T) {
	now := mustTime(t, "2024-03-15T10:00:00Z")

	thisWeek := ResolveWindow(WindowThisWeek, now, time.UTC)
	lastWeek := ResolveWindow(WindowLastWeek, now, time.UTC)
	prev := thisWeek.Previous()
	if !prev.Start.Equal(lastWeek.Start) || !prev.End.Equal(lastWeek.End) {
		t.Errorf("this week's predecessor should be last week, got %s - %s", prev.Start, prev.End)
	}
	if prev.Name != "Last Week" {
		t.Errorf("unexpected name %q", prev.Name)
	}

	before := lastWeek.Previous()
	if !before.End.Equal(lastWeek.Start) || before.Name != "Previous Week" {
		t.Errorf("unexpected week before last: %+v", before)
	}

	lastMonth := ResolveWindow(WindowLastMonth, now, time.UTC).Previous()
	if !lastMonth.Start.Equal(mustTime(t, "2024-01-01T00:00:00Z")) {
		t.Errorf("month before last should start 2024-01-01, got %s", lastMonth.Start)
	}
}

func TestTimeWindow_Label(t *testing.T) {
	now := mustTime(t, "2024-03-15T10:00:00Z")

	if got := ResolveWindow(WindowToday, now, time.UTC).Label(); got != "Today (2024-03-15)" {
		t.Errorf("unexpected today label %q", got)
	}
	if got := ResolveWindow(WindowThisWeek, now, time.UTC).Label(); got != "This Week (2024-03-10 to 2024-03-16)" {
		t.Errorf("unexpected week label %q", got)
	}
	if got := ResolveWindow(WindowLastMonth, now, time.UTC).Label(); got != "Last Month (2024-02-01 to 2024-02-29)" {
		t.Errorf("unexpected month label %q", got)
	}
}
