package syncclient

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"focustasks/model"
)

// DefaultDelay is the quiet period before a scheduled upload goes out.
const DefaultDelay = 2 * time.Second

// Pusher uploads a task list.
type Pusher interface {
	Push(ctx context.Context, deviceID string, tasks []model.SyncedTask) (int, error)
}

// Debouncer coalesces bursts of changes into one upload of the latest list.
type Debouncer struct {
	mu       sync.Mutex
	pusher   Pusher
	deviceID string
	delay    time.Duration
	logger   *log.Logger

	timer   *time.Timer
	pending []model.SyncedTask
	dirty   bool

	// busy holds a token while an upload is in flight.
	busy chan struct{}
}

func NewDebouncer(p Pusher, deviceID string, delay time.Duration, logger *log.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{pusher: p, deviceID: deviceID, delay: delay, logger: logger, busy: make(chan struct{}, 1)}
}

// Schedule replaces the pending list and restarts the quiet period.
func (d *Debouncer) Schedule(tasks []model.SyncedTask) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = tasks
	d.dirty = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := d.Flush(ctx); err != nil {
		d.logger.Warn("task sync failed", "err", err)
	}
}

// Flush waits for an upload already in flight, then uploads the pending list,
// if there is one.
func (d *Debouncer) Flush(ctx context.Context) error {
	select {
	case d.busy <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-d.busy }()

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if !d.dirty {
		d.mu.Unlock()
		return nil
	}
	tasks := d.pending
	d.pending, d.dirty = nil, false
	d.mu.Unlock()

	n, err := d.pusher.Push(ctx, d.deviceID, tasks)
	if err != nil {
		return err
	}
	d.logger.Debug("tasks synced", "count", n)
	return nil
}
