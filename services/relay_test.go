package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"focustasks/dto"
	"focustasks/model"
	"focustasks/store"
)

var relayNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestRelay(repo store.Repository) *Relay {
	return NewRelay(repo, RelayOptions{Now: func() time.Time { return relayNow }})
}

func validSub() *model.Subscription {
	return &model.Subscription{
		Endpoint: "https://push.example.com/abc",
		Keys:     model.SubscriptionKeys{P256dh: "p256", Auth: "auth"},
	}
}

func TestRegisterDevice(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	r := newTestRelay(repo)

	dev, existed, err := r.RegisterDevice(ctx, dto.RegisterDeviceRequest{DeviceID: "dev-1", Subscription: validSub()})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if existed {
		t.Error("expected new device")
	}
	if dev.Timezone != "UTC" || dev.UpdatedAt != relayNow.UnixMilli() {
		t.Errorf("unexpected device %+v", dev)
	}

	_, existed, err = r.RegisterDevice(ctx, dto.RegisterDeviceRequest{DeviceID: "dev-1", Timezone: "Asia/Bangkok", Subscription: validSub()})
	if err != nil || !existed {
		t.Fatalf("expected re-register of known device, got %v %v", existed, err)
	}
	got, _, _ := r.Device(ctx, "dev-1")
	if got.Timezone != "Asia/Bangkok" {
		t.Errorf("expected timezone updated, got %s", got.Timezone)
	}
}

func TestRegisterDeviceValidation(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	r := newTestRelay(repo)

	noAuth := validSub()
	noAuth.Keys.Auth = ""
	cases := []struct {
		name string
		req  dto.RegisterDeviceRequest
	}{
		{"blank device", dto.RegisterDeviceRequest{DeviceID: "  ", Subscription: validSub()}},
		{"no subscription", dto.RegisterDeviceRequest{DeviceID: "d"}},
		{"missing auth key", dto.RegisterDeviceRequest{DeviceID: "d", Subscription: noAuth}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := r.RegisterDevice(ctx, tc.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	doc, _ := repo.Load(ctx)
	if len(doc.Devices) != 0 {
		t.Errorf("expected store unchanged, got %v", doc.Devices)
	}
}

func syncReq(t *testing.T, deviceID string, tasks any) dto.SyncTasksRequest {
	t.Helper()
	b, err := json.Marshal(tasks)
	if err != nil {
		t.Fatal(err)
	}
	return dto.SyncTasksRequest{DeviceID: deviceID, Tasks: b}
}

func TestSyncTasksSanitizes(t *testing.T) {
	ctx := context.Background()
	r := newTestRelay(store.NewMemory())

	long := strings.Repeat("é", 250)
	n, err := r.SyncTasks(ctx, syncReq(t, "dev-1", []any{
		map[string]any{"id": "a", "title": long, "dueAt": "2024-05-10T09:00", "allDay": false, "completed": 1, "updatedAt": 42},
		map[string]any{"id": "b", "title": "Defaults", "dueAt": "  "},
		map[string]any{"id": "", "title": "no id"},
		map[string]any{"id": "c"},
		"not an object",
		nil,
	}))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 kept, got %d", n)
	}

	tasks, ok, _ := r.Snapshot(ctx, "dev-1")
	if !ok || len(tasks) != 2 {
		t.Fatalf("expected snapshot of 2, got %v", tasks)
	}
	a, b := tasks[0], tasks[1]
	if len([]rune(a.Title)) != MaxTitleLength {
		t.Errorf("expected title truncated to %d runes, got %d", MaxTitleLength, len([]rune(a.Title)))
	}
	if a.AllDay || !a.Completed || a.UpdatedAt != 42 || a.DueAt == nil {
		t.Errorf("unexpected first task %+v", a)
	}
	if !b.AllDay || b.Completed || b.DueAt != nil || b.UpdatedAt != relayNow.UnixMilli() {
		t.Errorf("unexpected defaults %+v", b)
	}

	dev, ok, _ := r.Device(ctx, "dev-1")
	if !ok || dev.Subscription != nil || dev.Timezone != "UTC" {
		t.Errorf("expected placeholder device, got %+v", dev)
	}
}

func TestSyncTasksIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRelay(store.NewMemory())
	req := syncReq(t, "dev-1", []any{
		map[string]any{"id": "a", "title": "A", "dueAt": "2024-05-10T09:00", "allDay": false, "updatedAt": 1},
	})

	if _, err := r.SyncTasks(ctx, req); err != nil {
		t.Fatal(err)
	}
	first, _, _ := r.Snapshot(ctx, "dev-1")
	if _, err := r.SyncTasks(ctx, req); err != nil {
		t.Fatal(err)
	}
	second, _, _ := r.Snapshot(ctx, "dev-1")

	b1, _ := json.Marshal(first)
	b2, _ := json.Marshal(second)
	if string(b1) != string(b2) {
		t.Errorf("expected identical snapshots, got %s and %s", b1, b2)
	}
}

func TestSyncTasksValidation(t *testing.T) {
	ctx := context.Background()
	r := newTestRelay(store.NewMemory())

	cases := []dto.SyncTasksRequest{
		{DeviceID: "", Tasks: json.RawMessage(`[]`)},
		{DeviceID: "d", Tasks: json.RawMessage(`{"id":"a"}`)},
		{DeviceID: "d"},
	}
	for _, req := range cases {
		var ve *ValidationError
		if _, err := r.SyncTasks(ctx, req); !errors.As(err, &ve) {
			t.Errorf("expected ValidationError for %+v, got %v", req, err)
		}
	}
}

func TestSyncKeepsSubscription(t *testing.T) {
	ctx := context.Background()
	r := newTestRelay(store.NewMemory())
	if _, _, err := r.RegisterDevice(ctx, dto.RegisterDeviceRequest{DeviceID: "d", Timezone: "Europe/Paris", Subscription: validSub()}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SyncTasks(ctx, syncReq(t, "d", []any{})); err != nil {
		t.Fatal(err)
	}
	dev, _, _ := r.Device(ctx, "d")
	if !dev.Subscription.Valid() || dev.Timezone != "Europe/Paris" {
		t.Errorf("expected registration kept, got %+v", dev)
	}
}
