package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"focustasks/filter"
	"focustasks/model"
	"focustasks/notify"
	"focustasks/storage"
)

// Notifier shows a reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// Syncer pushes the task list to the relay. Schedule may coalesce calls.
type Syncer interface {
	Schedule(tasks []model.SyncedTask)
	Flush(ctx context.Context) error
}

// Session wires the store, the registry and the preferences together. Every
// command persists, recomputes the stats, runs a notification scan and
// schedules a relay sync, in that order.
type Session struct {
	mu sync.Mutex

	Tasks *Store
	Types *Registry
	Prefs *Prefs

	opts     Options
	notifier Notifier
	syncer   Syncer
}

type SessionOptions struct {
	Options
	Notifier Notifier
	// Syncer is optional; without one nothing leaves the device.
	Syncer Syncer
}

// Result is what a command hands back for rendering.
type Result struct {
	Task    *model.Task
	Type    *model.TaskType
	Removed int
	Stats   filter.Stats
	Scan    notify.Result
}

// Open loads everything from kv and repairs task types.
func Open(ctx context.Context, kv storage.KV, opts SessionOptions) (*Session, error) {
	base := opts.Options.withDefaults()
	s := &Session{
		Tasks:    NewStore(kv, base),
		Types:    NewRegistry(kv, base),
		Prefs:    NewPrefs(kv),
		opts:     base,
		notifier: opts.Notifier,
		syncer:   opts.Syncer,
	}
	if err := s.Types.Load(ctx); err != nil {
		return nil, err
	}
	if err := s.Tasks.Load(ctx); err != nil {
		return nil, err
	}
	if n, err := s.Types.Normalize(ctx, s.Tasks); err != nil {
		return nil, err
	} else if n > 0 {
		s.opts.Logger.Info("reassigned task types", "count", n)
	}
	return s, nil
}

// AddTaskInput is AddInput plus the chosen type; an empty TypeID means the
// active type.
type AddTaskInput struct {
	AddInput
	TypeID string
}

func (s *Session) AddTask(ctx context.Context, in AddTaskInput) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	typ := s.Types.Active()
	if in.TypeID != "" {
		t, err := s.Types.Find(in.TypeID)
		if err != nil {
			return Result{}, err
		}
		typ = t
	}
	task, err := s.Tasks.Add(ctx, in.AddInput, typ)
	if err != nil {
		return Result{}, err
	}
	return s.after(ctx, Result{Task: &task, Type: &typ}), nil
}

func (s *Session) ToggleTask(ctx context.Context, ref string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.Tasks.Find(ref)
	if err != nil {
		return Result{}, err
	}
	task, err := s.Tasks.Toggle(ctx, t.ID)
	if err != nil {
		return Result{}, err
	}
	return s.after(ctx, Result{Task: &task}), nil
}

func (s *Session) DeleteTask(ctx context.Context, ref string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.Tasks.Find(ref)
	if err != nil {
		return Result{}, err
	}
	task, err := s.Tasks.Delete(ctx, t.ID)
	if err != nil {
		return Result{}, err
	}
	return s.after(ctx, Result{Task: &task, Removed: 1}), nil
}

func (s *Session) ClearCompleted(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.Tasks.ClearCompleted(ctx)
	if err != nil {
		return Result{}, err
	}
	return s.after(ctx, Result{Removed: n}), nil
}

func (s *Session) AddType(ctx context.Context, name, color string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.Types.Add(ctx, name, color)
	if err != nil {
		return Result{}, err
	}
	return Result{Type: &t, Stats: s.stats()}, nil
}

// DeleteType removes the type named by ref. Removed is zero when ref is the
// last remaining type.
func (s *Session) DeleteType(ctx context.Context, ref string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.Types.Find(ref)
	if err != nil {
		return Result{}, err
	}
	ok, err := s.Types.Delete(ctx, t.ID, s.Tasks)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Type: &t, Stats: s.stats()}, nil
	}
	return s.after(ctx, Result{Type: &t, Removed: 1}), nil
}

// View returns the tasks of one filter view.
func (s *Session) View(kind filter.Kind) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.Apply(s.Tasks.Tasks(), kind, s.Now())
}

func (s *Session) Stats() filter.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats()
}

// SetNotifications turns reminders on or off. Turning them on runs a scan
// straight away.
func (s *Session) SetNotifications(ctx context.Context, on bool) (notify.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Prefs.SetNotificationsEnabled(ctx, on); err != nil {
		return notify.Result{}, err
	}
	if !on {
		return notify.Result{}, nil
	}
	return s.scan(ctx), nil
}

// Scan runs a notification scan when reminders are enabled.
func (s *Session) Scan(ctx context.Context) notify.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan(ctx)
}

// Resume is called when the user comes back to the app.
func (s *Session) Resume(ctx context.Context) notify.Result {
	return s.Scan(ctx)
}

// SyncNow schedules the current list and flushes it immediately.
func (s *Session) SyncNow(ctx context.Context) error {
	if s.syncer == nil {
		return fmt.Errorf("no relay configured")
	}
	s.mu.Lock()
	s.schedule()
	s.mu.Unlock()
	return s.syncer.Flush(ctx)
}

// Close flushes any pending sync.
func (s *Session) Close(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}
	return s.syncer.Flush(ctx)
}

func (s *Session) after(ctx context.Context, res Result) Result {
	res.Stats = s.stats()
	res.Scan = s.scan(ctx)
	s.schedule()
	return res
}

func (s *Session) stats() filter.Stats {
	return filter.Summarize(s.Tasks.Tasks(), s.Now())
}

func (s *Session) scan(ctx context.Context) notify.Result {
	log := s.opts.Logger
	on, err := s.Prefs.NotificationsEnabled(ctx)
	if err != nil {
		log.Warn("read notification setting", "err", err)
		return notify.Result{}
	}
	if !on || s.notifier == nil {
		return notify.Result{}
	}

	sent, err := s.Prefs.SentMap(ctx)
	if err != nil {
		log.Warn("read sent map", "err", err)
		return notify.Result{}
	}

	tasks := s.Tasks.Tasks()
	items := make([]notify.Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, notify.Item{
			ID:        t.ID,
			Title:     t.Title,
			DueAt:     t.DueAt,
			AllDay:    t.AllDay,
			Completed: t.Completed,
		})
	}

	res := notify.Scan(ctx, items, sent, s.Now(), s.opts.Location, func(ctx context.Context, n notify.Notification) error {
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.Warn("show notification", "task", n.TaskID, "err", err)
			return err
		}
		return nil
	})
	if res.Changed {
		if err := s.Prefs.SaveSentMap(ctx, sent); err != nil {
			log.Warn("save sent map", "err", err)
		}
	}
	return res
}

// Now is the current time in the session's location.
func (s *Session) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *Session) schedule() {
	if s.syncer == nil {
		return
	}
	tasks := s.Tasks.Tasks()
	out := make([]model.SyncedTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Synced())
	}
	s.syncer.Schedule(out)
}
