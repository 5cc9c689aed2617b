package tracker

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"focustasks/notify"
	"focustasks/storage"
)

// Themes a client may pick. The first is the default.
var Themes = []string{"light", "dark"}

// Prefs are the small per-device settings kept next to the task list.
type Prefs struct {
	kv storage.KV
}

func NewPrefs(kv storage.KV) *Prefs {
	return &Prefs{kv: kv}
}

func (p *Prefs) Theme(ctx context.Context) (string, error) {
	v, ok, err := p.kv.Get(ctx, KeyTheme)
	if err != nil {
		return "", err
	}
	if !ok || !slices.Contains(Themes, v) {
		return Themes[0], nil
	}
	return v, nil
}

func (p *Prefs) SetTheme(ctx context.Context, theme string) error {
	if !slices.Contains(Themes, theme) {
		return ErrUnknownTheme
	}
	return p.kv.Set(ctx, KeyTheme, theme)
}

// NotificationsEnabled defaults to false until the user opts in.
func (p *Prefs) NotificationsEnabled(ctx context.Context) (bool, error) {
	v, ok, err := p.kv.Get(ctx, KeyNotifyEnabled)
	if err != nil || !ok {
		return false, err
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}
	return on, nil
}

func (p *Prefs) SetNotificationsEnabled(ctx context.Context, on bool) error {
	return p.kv.Set(ctx, KeyNotifyEnabled, strconv.FormatBool(on))
}

// SentMap returns the dedup record of delivered reminders. A corrupt record
// reads as empty.
func (p *Prefs) SentMap(ctx context.Context) (notify.SentMap, error) {
	sent := notify.SentMap{}
	v, ok, err := p.kv.Get(ctx, KeyNotifySent)
	if err != nil || !ok {
		return sent, err
	}
	if err := json.Unmarshal([]byte(v), &sent); err != nil || sent == nil {
		return notify.SentMap{}, nil
	}
	return sent, nil
}

func (p *Prefs) SaveSentMap(ctx context.Context, sent notify.SentMap) error {
	if sent == nil {
		sent = notify.SentMap{}
	}
	b, err := json.Marshal(sent)
	if err != nil {
		return err
	}
	return p.kv.Set(ctx, KeyNotifySent, string(b))
}

// DeviceID returns this install's relay id, minting one on first use.
func (p *Prefs) DeviceID(ctx context.Context) (string, error) {
	v, ok, err := p.kv.Get(ctx, KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && v != "" {
		return v, nil
	}
	id := uuid.NewString()
	if err := p.kv.Set(ctx, KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
