// Package services holds the relay's business logic: device registration,
// task snapshots and the reminder dispatcher.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"focustasks/dto"
	"focustasks/logger"
	"focustasks/model"
	"focustasks/store"
)

// MaxTitleLength caps synced titles, in runes.
const MaxTitleLength = 200

// ValidationError is a client mistake; handlers answer 400 with Message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// Relay stores device registrations and task snapshots. It shares its lock
// with the Dispatcher built from it so every load-modify-save of the
// document runs alone.
type Relay struct {
	mu     *sync.Mutex
	repo   store.Repository
	now    func() time.Time
	logger *log.Logger
}

type RelayOptions struct {
	Now    func() time.Time
	Logger *log.Logger
}

func NewRelay(repo store.Repository, opts RelayOptions) *Relay {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Relay{mu: &sync.Mutex{}, repo: repo, now: opts.Now, logger: opts.Logger}
}

// RegisterDevice records the device's push subscription and timezone. It
// reports whether the device was already known.
func (r *Relay) RegisterDevice(ctx context.Context, req dto.RegisterDeviceRequest) (model.Device, bool, error) {
	id := strings.TrimSpace(req.DeviceID)
	if id == "" {
		return model.Device{}, false, invalid("deviceId is required")
	}
	if !req.Subscription.Valid() {
		return model.Device{}, false, invalid("subscription is invalid")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.repo.Load(ctx)
	if err != nil {
		return model.Device{}, false, err
	}
	_, existed := doc.Devices[id]

	dev := model.Device{
		DeviceID:     id,
		Timezone:     orDefault(req.Timezone, model.DefaultTimezone),
		Subscription: req.Subscription,
		UpdatedAt:    r.now().UnixMilli(),
	}
	doc.Devices[id] = dev
	if err := r.repo.Save(ctx, doc); err != nil {
		return model.Device{}, false, err
	}
	r.logger.Info("device registered", "device", id, "timezone", dev.Timezone, "new", !existed)
	return dev, existed, nil
}

// SyncTasks replaces the device's task snapshot with the sanitized entries of
// req.Tasks and returns how many were kept.
func (r *Relay) SyncTasks(ctx context.Context, req dto.SyncTasksRequest) (int, error) {
	id := strings.TrimSpace(req.DeviceID)
	if id == "" {
		return 0, invalid("deviceId is required")
	}
	raw := bytes.TrimSpace(req.Tasks)
	if len(raw) == 0 || raw[0] != '[' {
		return 0, invalid("tasks must be an array")
	}
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, invalid("tasks must be an array")
	}

	now := r.now().UnixMilli()
	tasks := make([]model.SyncedTask, 0, len(entries))
	for _, e := range entries {
		if t, ok := SanitizeTask(e, now); ok {
			tasks = append(tasks, t)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.repo.Load(ctx)
	if err != nil {
		return 0, err
	}
	dev, ok := doc.Devices[id]
	if !ok {
		dev = model.Device{DeviceID: id, Timezone: model.DefaultTimezone}
	}
	dev.Timezone = orDefault(req.Timezone, orDefault(dev.Timezone, model.DefaultTimezone))
	dev.UpdatedAt = now
	doc.Devices[id] = dev
	doc.TasksByDevice[id] = tasks

	if err := r.repo.Save(ctx, doc); err != nil {
		return 0, err
	}
	r.logger.Debug("tasks synced", "device", id, "received", len(entries), "kept", len(tasks))
	return len(tasks), nil
}

// Snapshot returns the stored tasks of a device.
func (r *Relay) Snapshot(ctx context.Context, deviceID string) ([]model.SyncedTask, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.repo.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	tasks, ok := doc.TasksByDevice[deviceID]
	return tasks, ok, nil
}

// Device looks a registered device up.
func (r *Relay) Device(ctx context.Context, deviceID string) (model.Device, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.repo.Load(ctx)
	if err != nil {
		return model.Device{}, false, err
	}
	dev, ok := doc.Devices[deviceID]
	return dev, ok, nil
}

// SanitizeTask turns one decoded JSON entry into a SyncedTask. Entries that
// are not objects or lack a non-blank string id and title are dropped.
func SanitizeTask(v any, now int64) (model.SyncedTask, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return model.SyncedTask{}, false
	}
	id, ok := nonBlank(m["id"])
	if !ok {
		return model.SyncedTask{}, false
	}
	title, ok := nonBlank(m["title"])
	if !ok {
		return model.SyncedTask{}, false
	}
	if r := []rune(title); len(r) > MaxTitleLength {
		title = string(r[:MaxTitleLength])
	}

	t := model.SyncedTask{
		ID:        id,
		Title:     title,
		AllDay:    m["allDay"] != false,
		Completed: truthy(m["completed"]),
		UpdatedAt: now,
	}
	if due, ok := nonBlank(m["dueAt"]); ok {
		t.DueAt = &due
	}
	if ms, ok := positiveNumber(m["updatedAt"]); ok {
		t.UpdatedAt = ms
	}
	return t, true
}

func nonBlank(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
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
	default:
		return true
	}
}

func positiveNumber(v any) (int64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return int64(f), true
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
