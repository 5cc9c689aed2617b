// Package deadline holds the pure date arithmetic behind task deadlines:
// parsing stored dueAt strings, the "today" test, list ordering and status labels.
package deadline

import (
	"math"
	"slices"
	"strings"
	"time"

	"focustasks/model"
)

const (
	// Layout is the stored dueAt form, a local-naive date and minute.
	Layout = "2006-01-02T15:04"

	// EndOfDay is the clock pinned onto all-day deadlines.
	EndOfDay = "23:59"
)

var localLayouts = []string{
	Layout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse interprets a stored dueAt in loc. Values carrying an explicit offset
// keep it.
func Parse(dueAt string, loc *time.Location) (time.Time, bool) {
	dueAt = strings.TrimSpace(dueAt)
	if dueAt == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, dueAt, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, dueAt); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ToTimestamp converts dueAt to epoch milliseconds. ok is false when dueAt is
// absent or unparsable.
func ToTimestamp(dueAt *string, loc *time.Location) (ms int64, ok bool) {
	if dueAt == nil {
		return 0, false
	}
	t, ok := Parse(*dueAt, loc)
	if !ok {
		return 0, false
	}
	return t.UnixMilli(), true
}

// IsToday reports whether dueAt falls on now's calendar date in now's location.
func IsToday(dueAt *string, now time.Time) bool {
	if dueAt == nil {
		return false
	}
	t, ok := Parse(*dueAt, now.Location())
	if !ok {
		return false
	}
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Build combines a date (YYYY-MM-DD) and clock (HH:MM) into a dueAt. All-day
// deadlines ignore clock and use EndOfDay. It returns nil when date is empty
// or the combination does not parse.
func Build(date, clock string, allDay bool, loc *time.Location) *string {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil
	}
	if allDay {
		clock = EndOfDay
	}
	dueAt := date + "T" + strings.TrimSpace(clock)
	if _, err := time.ParseInLocation(Layout, dueAt, orLocal(loc)); err != nil {
		return nil
	}
	return &dueAt
}

// Sort returns a copy of list ordered for display: incomplete before
// completed, then by ascending deadline with undated tasks last, then newest
// created first. The sort is stable.
func Sort(list []model.Task, loc *time.Location) []model.Task {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b model.Task) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		at, bt := sortKey(a, loc), sortKey(b, loc)
		if at != bt {
			if at < bt {
				return -1
			}
			return 1
		}
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})
	return out
}

func sortKey(t model.Task, loc *time.Location) int64 {
	if ms, ok := ToTimestamp(t.DueAt, loc); ok {
		return ms
	}
	return math.MaxInt64
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
