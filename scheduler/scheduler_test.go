package scheduler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"focustasks/dto"
	"focustasks/logger"
	"focustasks/model"
	"focustasks/services"
	"focustasks/store"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeSender struct {
	mu       sync.Mutex
	payloads []model.PushPayload
}

func (f *fakeSender) Send(_ context.Context, _ *model.Subscription, p model.PushPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return nil
}

func newRelay(t *testing.T) (*services.Relay, *store.Memory) {
	t.Helper()
	ctx := context.Background()
	repo := store.NewMemory()
	r := services.NewRelay(repo, services.RelayOptions{Now: func() time.Time { return now }})

	sub := &model.Subscription{
		Endpoint: "https://push.example.com/abc",
		Keys:     model.SubscriptionKeys{P256dh: "p256", Auth: "auth"},
	}
	if _, _, err := r.RegisterDevice(ctx, dto.RegisterDeviceRequest{DeviceID: "dev-1", Timezone: "UTC", Subscription: sub}); err != nil {
		t.Fatalf("register: %v", err)
	}
	tasks, _ := json.Marshal([]any{
		map[string]any{"id": "a", "title": "Stand-up", "dueAt": "2024-05-10T09:00", "allDay": false},
	})
	if _, err := r.SyncTasks(ctx, dto.SyncTasksRequest{DeviceID: "dev-1", Tasks: tasks}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	return r, repo
}

func TestRunDispatchDisabled(t *testing.T) {
	r, repo := newRelay(t)
	RunDispatch(context.Background(), services.NewDispatcher(r, nil, ""), logger.Discard())

	doc, err := repo.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.SentByDevice["dev-1"]) != 0 {
		t.Errorf("expected nothing recorded without a sender, got %v", doc.SentByDevice)
	}
}

func TestRunDispatchSends(t *testing.T) {
	r, repo := newRelay(t)
	sender := &fakeSender{}
	RunDispatch(context.Background(), services.NewDispatcher(r, sender, ""), logger.Discard())

	if len(sender.payloads) != 1 || sender.payloads[0].Title != "Task overdue" {
		t.Fatalf("expected one overdue reminder, got %+v", sender.payloads)
	}
	doc, _ := repo.Load(context.Background())
	if doc.SentByDevice["dev-1"]["a"] != "2024-05-10T09:00" {
		t.Errorf("expected the reminder recorded, got %v", doc.SentByDevice)
	}

	RunDispatch(context.Background(), services.NewDispatcher(r, sender, ""), logger.Discard())
	if len(sender.payloads) != 1 {
		t.Errorf("expected the second run to send nothing new, got %d", len(sender.payloads))
	}
}

func TestStartSchedulerRegistersMinuteJob(t *testing.T) {
	r, _ := newRelay(t)
	c, err := StartScheduler(context.Background(), services.NewDispatcher(r, &fakeSender{}, ""), logger.Discard())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one job, got %d", len(entries))
	}
	next := entries[0].Next
	if next.Second() != 0 || time.Until(next) > time.Minute {
		t.Errorf("expected next run at the top of the coming minute, got %s", next)
	}
}
