package deadline

import (
	"fmt"
	"math"
	"time"

	"focustasks/model"
)

// Kind is the urgency state of a task relative to now.
type Kind int

const (
	NoDeadline Kind = iota
	Completed
	Overdue
	DueNow
	DueIn
	Scheduled
)

func (k Kind) String() string {
	switch k {
	case NoDeadline:
		return "no-deadline"
	case Completed:
		return "completed"
	case Overdue:
		return "overdue"
	case DueNow:
		return "due-now"
	case DueIn:
		return "due-in"
	case Scheduled:
		return "scheduled"
	}
	return "unknown"
}

// Status describes a task's deadline state at a point in time.
type Status struct {
	Kind      Kind
	Due       time.Time
	AllDay    bool
	Today     bool
	Completed bool
	// Minutes counts minutes until the deadline for DueIn and DueNow, and
	// minutes since it for Overdue.
	Minutes int
}

// FormatStatus derives t's status at now, interpreting dueAt in now's location.
func FormatStatus(t model.Task, now time.Time) Status {
	st := Status{AllDay: t.AllDay, Completed: t.Completed}
	if !t.HasDeadline() {
		st.Kind = NoDeadline
		return st
	}
	due, ok := Parse(*t.DueAt, now.Location())
	if !ok {
		st.Kind = NoDeadline
		return st
	}
	st.Due = due
	st.Today = IsToday(t.DueAt, now)

	switch {
	case t.Completed:
		st.Kind = Completed
	case due.Before(now):
		st.Kind = Overdue
		st.Minutes = int(now.Sub(due) / time.Minute)
	case st.Today && !t.AllDay:
		mins := int(math.Round(due.Sub(now).Minutes()))
		if mins < 0 {
			mins = 0
		}
		st.Minutes = mins
		if mins <= 1 {
			st.Kind = DueNow
		} else {
			st.Kind = DueIn
		}
	default:
		st.Kind = Scheduled
	}
	return st
}

// String renders the status as a one-line label.
func (s Status) String() string {
	if s.Kind == NoDeadline {
		if s.Completed {
			return "No deadline · Completed"
		}
		return "No deadline"
	}

	date := s.Due.Format("Jan 2, 2006")
	clock := s.Due.Format("3:04 PM")
	head := fmt.Sprintf("Deadline %s, %s", date, clock)
	if s.AllDay {
		head = fmt.Sprintf("Deadline %s · All day", date)
	}

	switch s.Kind {
	case Completed:
		return head + " · Completed"
	case Overdue:
		return head + " · Overdue"
	case DueNow:
		return fmt.Sprintf("Deadline %s · Due now", date)
	case DueIn:
		return fmt.Sprintf("%s · In %d min", head, s.Minutes)
	}
	return head
}
