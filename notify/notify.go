// Package notify decides which overdue timed tasks to remind about. The same
// scan drives the client poller and the relay's per-minute job.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focustasks/deadline"
)

// MaxPerScan caps emissions per scan.
const MaxPerScan = 3

// ErrHalt, returned (or wrapped) by an EmitFunc, stops the rest of the scan.
var ErrHalt = errors.New("notify: halt scan")

// Item is the subset of a task the dispatcher looks at.
type Item struct {
	ID        string
	Title     string
	DueAt     *string
	AllDay    bool
	Completed bool
}

// Eligible reports whether the item is a candidate for reminders: not
// completed, with a deadline, and explicitly timed.
func (it Item) Eligible() bool {
	return !it.Completed && it.DueAt != nil && *it.DueAt != "" && !it.AllDay
}

// SentMap records, per task id, the dueAt value last notified.
type SentMap map[string]string

// Notification is one reminder to deliver.
type Notification struct {
	TaskID      string
	DueAt       string
	Title       string
	Body        string
	MinutesLate int
}

// EmitFunc delivers a notification. A non-nil error leaves the task
// unrecorded so the next scan retries it.
type EmitFunc func(ctx context.Context, n Notification) error

// Result summarizes a scan.
type Result struct {
	Sent    []Notification
	Pruned  int
	Failed  int
	Halted  bool
	Changed bool
}

// Scan prunes sent of entries whose task is no longer eligible, then emits
// reminders in list order for eligible tasks due at or before now that were
// not yet notified for their current dueAt, stopping after MaxPerScan.
// sent is updated in place and must not be nil; callers persist it once when
// Result.Changed is set.
func Scan(ctx context.Context, items []Item, sent SentMap, now time.Time, loc *time.Location, emit EmitFunc) Result {
	var res Result

	active := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Eligible() {
			active[it.ID] = struct{}{}
		}
	}
	for id := range sent {
		if _, ok := active[id]; !ok {
			delete(sent, id)
			res.Pruned++
			res.Changed = true
		}
	}

	for _, it := range items {
		if len(res.Sent) >= MaxPerScan {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if !it.Eligible() {
			continue
		}
		due, ok := deadline.Parse(*it.DueAt, loc)
		if !ok || due.After(now) {
			continue
		}
		if sent[it.ID] == *it.DueAt {
			continue
		}

		n := Message(it, due, now)
		if err := emit(ctx, n); err != nil {
			if errors.Is(err, ErrHalt) {
				res.Halted = true
				break
			}
			res.Failed++
			continue
		}
		sent[it.ID] = *it.DueAt
		res.Sent = append(res.Sent, n)
		res.Changed = true
	}
	return res
}

// Message builds the reminder text for an item due at due.
func Message(it Item, due, now time.Time) Notification {
	late := int(now.Sub(due) / time.Minute)
	if late < 0 {
		late = 0
	}
	n := Notification{
		TaskID:      it.ID,
		MinutesLate: late,
		Title:       "Task due now",
		Body:        it.Title,
	}
	if it.DueAt != nil {
		n.DueAt = *it.DueAt
	}
	if late > 1 {
		n.Title = "Task overdue"
		n.Body = fmt.Sprintf("%s (%d min late)", it.Title, late)
	}
	return n
}
