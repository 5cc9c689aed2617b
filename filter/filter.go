// Package filter derives the dashboard views (today, upcoming, overdue,
// completed, all) from a task list.
package filter

import (
	"time"

	"focustasks/deadline"
	"focustasks/model"
)

// Kind names a view.
type Kind string

const (
	All       Kind = "all"
	Today     Kind = "today"
	Upcoming  Kind = "upcoming"
	Overdue   Kind = "overdue"
	Completed Kind = "completed"
)

// Kinds lists every view in display order.
var Kinds = []Kind{All, Today, Upcoming, Overdue, Completed}

// ParseKind maps a view name onto a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Stats are the dashboard counters.
type Stats struct {
	Today    int `json:"today"`
	Overdue  int `json:"overdue"`
	Upcoming int `json:"upcoming"`
}

// Apply returns the tasks of list belonging to view kind at now, sorted.
// Deadlines are read in now's location. Unknown kinds select every
// incomplete task.
func Apply(list []model.Task, kind Kind, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(list))
	for _, t := range list {
		if Match(t, kind, now) {
			out = append(out, t)
		}
	}
	return deadline.Sort(out, now.Location())
}

// Match reports whether a single task belongs to view kind.
func Match(t model.Task, kind Kind, now time.Time) bool {
	if kind == Completed {
		return t.Completed
	}
	if t.Completed {
		return false
	}

	due, hasDue := deadline.ToTimestamp(t.DueAt, now.Location())
	nowMs := now.UnixMilli()

	switch kind {
	case Today:
		return deadline.IsToday(t.DueAt, now)
	case Upcoming:
		return hasDue && due > nowMs && !deadline.IsToday(t.DueAt, now)
	case Overdue:
		return hasDue && due < nowMs
	}
	return true
}

// Summarize counts the today, overdue and upcoming views.
func Summarize(list []model.Task, now time.Time) Stats {
	var s Stats
	for _, t := range list {
		if Match(t, Today, now) {
			s.Today++
		}
		if Match(t, Overdue, now) {
			s.Overdue++
		}
		if Match(t, Upcoming, now) {
			s.Upcoming++
		}
	}
	return s
}
