// Package tracker is the client side of Focus Tasks: the task store, the type
// registry, local preferences and the Session that orchestrates them.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"focustasks/storage"
)

// Storage keys.
const (
	KeyTasks         = "focus-tasks-v2"
	KeyTasksBackup   = "focus-tasks-v2-backup"
	KeyLegacyTasks   = "focus-tasks-v1"
	KeyTypes         = "focus-types-v1"
	KeyTypesBackup   = "focus-types-v1-backup"
	KeyTheme         = "focus-theme-v1"
	KeyNotifyEnabled = "focus-notify-enabled-v1"
	KeyNotifySent    = "focus-notify-sent-v1"
	KeyDeviceID      = "focus-device-id-v1"
)

var (
	ErrEmptyTitle        = errors.New("title is required")
	ErrMissingTime       = errors.New("a timed deadline needs a time")
	ErrTaskNotFound      = errors.New("task not found")
	ErrAmbiguousRef      = errors.New("reference matches more than one record")
	ErrEmptyTypeName     = errors.New("type name is required")
	ErrDuplicateTypeName = errors.New("a type with that name already exists")
	ErrUnknownColor      = errors.New("color is not in the palette")
	ErrTypeNotFound      = errors.New("type not found")
	ErrUnknownTheme      = errors.New("unknown theme")
)

// mirror writes a value under a primary key and a backup key in one call and
// reads back whichever holds data, primary first.
type mirror struct {
	kv      storage.KV
	primary string
	backup  string
	// legacy is read after both when set, never written.
	legacy string
	// keepBackup stops saves from touching the backup key.
	keepBackup bool
}

type stored struct {
	key string
	raw string
}

func (m *mirror) save(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := m.kv.Set(ctx, m.primary, string(b)); err != nil {
		return err
	}
	if m.backup == "" || m.keepBackup {
		return nil
	}
	return m.kv.Set(ctx, m.backup, string(b))
}

// candidates returns the non-empty stored values in read-preference order.
func (m mirror) candidates(ctx context.Context) ([]stored, error) {
	var out []stored
	for _, key := range []string{m.primary, m.backup, m.legacy} {
		if key == "" {
			continue
		}
		raw, ok, err := m.kv.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		out = append(out, stored{key: key, raw: raw})
	}
	return out, nil
}
