package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"focustasks/model"
	"focustasks/storage"
)

// Registry holds the task types. It always contains at least one type; the
// first entry is the fallback for tasks whose type is gone.
type Registry struct {
	kv     mirror
	opts   Options
	types  []model.TaskType
	active string
}

func NewRegistry(kv storage.KV, opts Options) *Registry {
	return &Registry{
		kv:   mirror{kv: kv, primary: KeyTypes, backup: KeyTypesBackup},
		opts: opts.withDefaults(),
	}
}

// Load reads the registry. When the primary copy holds nothing usable the
// backup is restored, and failing that the default set is written.
func (r *Registry) Load(ctx context.Context) error {
	cands, err := r.kv.candidates(ctx)
	if err != nil {
		return fmt.Errorf("read types: %w", err)
	}

	for _, c := range cands {
		types, dropped, ok := decodeTypes(c.raw)
		if !ok {
			r.opts.Logger.Warn("skipping unusable type registry", "key", c.key)
			continue
		}
		r.types = types
		r.active = types[0].ID
		if c.key == KeyTypes && dropped == 0 {
			return nil
		}
		r.opts.Logger.Info("repairing type registry", "from", c.key, "dropped", dropped)
		return r.save(ctx)
	}

	r.opts.Logger.Info("type registry reset to defaults")
	r.types = model.DefaultTypes()
	r.active = r.types[0].ID
	return r.save(ctx)
}

// decodeTypes keeps the well-formed entries of raw. ok is false when none
// survive.
func decodeTypes(raw string) ([]model.TaskType, int, bool) {
	var list []model.TaskType
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, 0, false
	}
	seen := make(map[string]bool, len(list))
	out := make([]model.TaskType, 0, len(list))
	for _, t := range list {
		if !t.Valid() || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, len(list) - len(out), len(out) > 0
}

// Types returns the registry in insertion order.
func (r *Registry) Types() []model.TaskType {
	out := make([]model.TaskType, len(r.types))
	copy(out, r.types)
	return out
}

// Fallback is the type orphaned tasks are moved to.
func (r *Registry) Fallback() model.TaskType {
	if len(r.types) == 0 {
		return model.DefaultTypes()[0]
	}
	return r.types[0]
}

func (r *Registry) Get(id string) (model.TaskType, bool) {
	for _, t := range r.types {
		if t.ID == id {
			return t, true
		}
	}
	return model.TaskType{}, false
}

// Resolve returns type id, or the fallback when it does not exist.
func (r *Registry) Resolve(id string) model.TaskType {
	if t, ok := r.Get(id); ok {
		return t
	}
	return r.Fallback()
}

// Find looks a type up by id or by case-insensitive name.
func (r *Registry) Find(ref string) (model.TaskType, error) {
	ref = strings.TrimSpace(ref)
	if t, ok := r.Get(ref); ok {
		return t, nil
	}
	for _, t := range r.types {
		if strings.EqualFold(t.Name, ref) {
			return t, nil
		}
	}
	return model.TaskType{}, ErrTypeNotFound
}

// Active is the type new tasks get when none is chosen.
func (r *Registry) Active() model.TaskType {
	return r.Resolve(r.active)
}

func (r *Registry) SetActive(id string) error {
	if _, ok := r.Get(id); !ok {
		return ErrTypeNotFound
	}
	r.active = id
	return nil
}

// Add appends a type and makes it the active selection.
func (r *Registry) Add(ctx context.Context, name, color string) (model.TaskType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.TaskType{}, ErrEmptyTypeName
	}
	for _, t := range r.types {
		if strings.EqualFold(t.Name, name) {
			return model.TaskType{}, ErrDuplicateTypeName
		}
	}
	c, ok := model.PaletteColor(color)
	if !ok {
		return model.TaskType{}, ErrUnknownColor
	}

	t := model.TaskType{ID: r.opts.NewID(), Name: name, Color: c.Hex}
	r.types = append(r.types, t)
	r.active = t.ID
	return t, r.save(ctx)
}

// Delete removes type id after moving its tasks to the first remaining type.
// It reports false without changing anything when id is the last type.
func (r *Registry) Delete(ctx context.Context, id string, tasks *Store) (bool, error) {
	if len(r.types) <= 1 {
		return false, nil
	}
	idx := -1
	for i, t := range r.types {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrTypeNotFound
	}

	remaining := make([]model.TaskType, 0, len(r.types)-1)
	remaining = append(remaining, r.types[:idx]...)
	remaining = append(remaining, r.types[idx+1:]...)
	fallback := remaining[0]

	if tasks != nil {
		_, err := tasks.Retype(ctx, func(t model.Task) (model.TaskType, bool) {
			return fallback, t.TypeID == id
		})
		if err != nil {
			return false, err
		}
	}

	r.types = remaining
	if r.active == id {
		r.active = fallback.ID
	}
	return true, r.save(ctx)
}

// Normalize gives every task a type that exists. Tasks saved before types
// existed are matched by their cached color.
func (r *Registry) Normalize(ctx context.Context, tasks *Store) (int, error) {
	return tasks.Retype(ctx, func(t model.Task) (model.TaskType, bool) {
		if _, ok := r.Get(t.TypeID); ok {
			return model.TaskType{}, false
		}
		for _, typ := range r.types {
			if t.Color != "" && strings.EqualFold(typ.Color, t.Color) {
				return typ, true
			}
		}
		return r.Fallback(), true
	})
}

func (r *Registry) save(ctx context.Context) error {
	if err := r.kv.save(ctx, r.types); err != nil {
		return fmt.Errorf("save types: %w", err)
	}
	return nil
}
