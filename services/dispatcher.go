package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"focustasks/model"
	"focustasks/notify"
	"focustasks/push"
)

// DefaultTasksURL is opened when the user taps a reminder.
const DefaultTasksURL = "https://danielaivnv.github.io/task-tracker/tasks.html"

// Dispatcher sends reminders for every registered device's overdue timed
// tasks.
type Dispatcher struct {
	relay    *Relay
	sender   push.Sender
	tasksURL string
	logger   *log.Logger
}

// DispatchSummary counts what one run did.
type DispatchSummary struct {
	Devices int
	Sent    int
	Failed  int
	Retired int
}

// NewDispatcher shares r's store and lock. A nil sender disables delivery.
func NewDispatcher(r *Relay, sender push.Sender, tasksURL string) *Dispatcher {
	if tasksURL == "" {
		tasksURL = DefaultTasksURL
	}
	return &Dispatcher{relay: r, sender: sender, tasksURL: tasksURL, logger: r.logger}
}

func (d *Dispatcher) Enabled() bool { return d.sender != nil }

// DispatchDue runs one scan per device holding a valid subscription. A
// subscription the push service reports gone is cleared and that device's
// batch stops. The document is saved once, and only when something changed.
func (d *Dispatcher) DispatchDue(ctx context.Context) (DispatchSummary, error) {
	var sum DispatchSummary
	if d.sender == nil {
		return sum, nil
	}

	d.relay.mu.Lock()
	defer d.relay.mu.Unlock()

	doc, err := d.relay.repo.Load(ctx)
	if err != nil {
		return sum, fmt.Errorf("load store: %w", err)
	}
	now := d.relay.now()

	ids := make([]string, 0, len(doc.Devices))
	for id := range doc.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	changed := false
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		dev := doc.Devices[id]
		if !dev.Subscription.Valid() {
			continue
		}
		sum.Devices++

		sent := notify.SentMap(doc.SentByDevice[id])
		if sent == nil {
			sent = notify.SentMap{}
		}
		sub := dev.Subscription
		gone := false

		res := notify.Scan(ctx, items(doc.TasksByDevice[id]), sent, now, location(dev.Timezone), func(ctx context.Context, n notify.Notification) error {
			err := d.sender.Send(ctx, sub, model.PushPayload{Title: n.Title, Body: n.Body, URL: d.tasksURL})
			switch {
			case errors.Is(err, push.ErrSubscriptionGone):
				gone = true
				return notify.ErrHalt
			case err != nil:
				d.logger.Warn("push failed", "device", id, "task", n.TaskID, "err", err)
				return err
			}
			return nil
		})

		if gone {
			dev.Subscription = nil
			doc.Devices[id] = dev
			sum.Retired++
			changed = true
			d.logger.Info("subscription retired", "device", id)
		}
		doc.SentByDevice[id] = map[string]string(sent)
		if res.Changed {
			changed = true
		}
		sum.Sent += len(res.Sent)
		sum.Failed += res.Failed
	}

	if !changed {
		return sum, nil
	}
	if err := d.relay.repo.Save(ctx, doc); err != nil {
		return sum, fmt.Errorf("save store: %w", err)
	}
	return sum, nil
}

func items(tasks []model.SyncedTask) []notify.Item {
	out := make([]notify.Item, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, notify.Item{
			ID:        t.ID,
			Title:     t.Title,
			DueAt:     t.DueAt,
			AllDay:    t.AllDay,
			Completed: t.Completed,
		})
	}
	return out
}

// location resolves an IANA zone name, falling back to UTC.
func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
