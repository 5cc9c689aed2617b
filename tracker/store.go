package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"focustasks/deadline"
	"focustasks/logger"
	"focustasks/model"
	"focustasks/storage"
)

// Options are shared by the store, the registry and the session.
type Options struct {
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
	Logger   *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
	return o
}

// AddInput is what the user typed into the new-task form.
type AddInput struct {
	Title  string
	Date   string
	Time   string
	AllDay bool
}

// Store owns the ordered task list and writes it as one unit on every change.
type Store struct {
	kv    mirror
	opts  Options
	tasks []model.Task
}

func NewStore(kv storage.KV, opts Options) *Store {
	return &Store{
		kv:   mirror{kv: kv, primary: KeyTasks, backup: KeyTasksBackup, legacy: KeyLegacyTasks},
		opts: opts.withDefaults(),
	}
}

// decodeTask reads one stored record of any shape the list has been saved in.
// Booleans and timestamps are coerced the way the browser app read them; ok is
// false only for records without a usable title.
func decodeTask(raw json.RawMessage, newID func() string) (model.Task, bool) {
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return model.Task{}, false
	}
	title, ok := rec["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return model.Task{}, false
	}

	t := model.Task{
		ID:        text(rec["id"]),
		Title:     title,
		TypeID:    text(rec["typeId"]),
		Color:     text(rec["color"]),
		Completed: truthy(rec["completed"]),
		CreatedAt: millis(rec["createdAt"]),
		UpdatedAt: millis(rec["updatedAt"]),
	}
	if strings.TrimSpace(t.ID) == "" {
		t.ID = newID()
	}

	allDay, hasAllDay := rec["allDay"]
	switch due, dueDate := text(rec["dueAt"]), text(rec["dueDate"]); {
	case due != "":
		t.DueAt = &due
		if hasAllDay && allDay != nil {
			t.AllDay = truthy(allDay)
		} else {
			t.AllDay = strings.HasSuffix(due, deadline.EndOfDay)
		}
	case dueDate != "":
		due := dueDate + "T" + deadline.EndOfDay
		t.DueAt = &due
		t.AllDay = true
	default:
		t.DueAt = nil
		t.AllDay = true
	}
	return t, true
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}

func millis(v any) int64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return 0
		}
		return int64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || f < 0 {
			return 0
		}
		return int64(f)
	}
	return 0
}

// Load reads the list, upgrading older record shapes, and writes the result
// straight back. Records that cannot be used are dropped one by one. When
// stored data exists but none of it reads as a list, the backup is left
// untouched by later saves so it can still be recovered by hand.
func (s *Store) Load(ctx context.Context) error {
	cands, err := s.kv.candidates(ctx)
	if err != nil {
		return fmt.Errorf("read tasks: %w", err)
	}

	for _, c := range cands {
		var raw []json.RawMessage
		if err := json.Unmarshal([]byte(c.raw), &raw); err != nil {
			s.opts.Logger.Warn("skipping unreadable task list", "key", c.key, "err", err)
			continue
		}
		tasks := make([]model.Task, 0, len(raw))
		for i, r := range raw {
			t, ok := decodeTask(r, s.opts.NewID)
			if !ok {
				s.opts.Logger.Warn("dropping unusable task record", "key", c.key, "index", i)
				continue
			}
			tasks = append(tasks, t)
		}
		s.tasks = deadline.Sort(tasks, s.opts.Location)
		if c.key != KeyTasks {
			s.opts.Logger.Info("restored task list", "from", c.key, "count", len(tasks))
		}
		return s.save(ctx)
	}

	s.tasks = nil
	if len(cands) > 0 {
		s.opts.Logger.Warn("no readable task list; keeping backup untouched", "candidates", len(cands))
		s.kv.keepBackup = true
	}
	return nil
}

// Tasks returns a copy of the list in display order.
func (s *Store) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len reports how many tasks are stored.
func (s *Store) Len() int { return len(s.tasks) }

// Add validates in, creates a task of type typ at the head of the list,
// re-sorts and persists. Nothing changes when validation fails.
func (s *Store) Add(ctx context.Context, in AddInput, typ model.TaskType) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	if !in.AllDay && strings.TrimSpace(in.Date) != "" && strings.TrimSpace(in.Time) == "" {
		return model.Task{}, ErrMissingTime
	}

	now := s.opts.Now().UnixMilli()
	t := model.Task{
		ID:        s.opts.NewID(),
		Title:     title,
		DueAt:     deadline.Build(in.Date, in.Time, in.AllDay, s.opts.Location),
		AllDay:    in.AllDay,
		TypeID:    typ.ID,
		Color:     typ.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.tasks = deadline.Sort(append([]model.Task{t}, s.tasks...), s.opts.Location)
	return t, s.save(ctx)
}

// Toggle flips the completed flag of task id.
func (s *Store) Toggle(ctx context.Context, id string) (model.Task, error) {
	i := s.index(id)
	if i < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	s.tasks[i].UpdatedAt = s.opts.Now().UnixMilli()
	t := s.tasks[i]

	s.tasks = deadline.Sort(s.tasks, s.opts.Location)
	return t, s.save(ctx)
}

// Delete removes task id.
func (s *Store) Delete(ctx context.Context, id string) (model.Task, error) {
	i := s.index(id)
	if i < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	return t, s.save(ctx)
}

// ClearCompleted removes every completed task and returns how many went.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	kept := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept
	return removed, s.save(ctx)
}

// Retype points tasks at new types. pick returns the type a task should have
// and whether it needs changing. The list is persisted when anything changed.
func (s *Store) Retype(ctx context.Context, pick func(model.Task) (model.TaskType, bool)) (int, error) {
	changed := 0
	for i, t := range s.tasks {
		typ, ok := pick(t)
		if !ok {
			continue
		}
		s.tasks[i].TypeID = typ.ID
		s.tasks[i].Color = typ.Color
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, s.save(ctx)
}

// Find resolves ref as a full id or an unambiguous id prefix.
func (s *Store) Find(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, ErrTaskNotFound
	}
	if i := s.index(ref); i >= 0 {
		return s.tasks[i], nil
	}
	var match *model.Task
	for i := range s.tasks {
		if strings.HasPrefix(s.tasks[i].ID, ref) {
			if match != nil {
				return model.Task{}, ErrAmbiguousRef
			}
			match = &s.tasks[i]
		}
	}
	if match == nil {
		return model.Task{}, ErrTaskNotFound
	}
	return *match, nil
}

func (s *Store) index(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) save(ctx context.Context) error {
	tasks := s.tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	if err := s.kv.save(ctx, tasks); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}
