package syncclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"focustasks/logger"
	"focustasks/model"
)

func TestClientRegisterAndPush(t *testing.T) {
	var gotAuth string
	var gotSync SyncRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/devices/register":
			var req RegisterRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID != "dev-1" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"ok":false,"error":"bad"}`))
				return
			}
			w.Write([]byte(`{"ok":true,"token":"tok"}`))
		case "/api/tasks/sync":
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotSync)
			w.Write([]byte(`{"ok":true,"synced":1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	ctx := context.Background()

	token, err := c.Register(ctx, RegisterRequest{DeviceID: "dev-1", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token != "tok" || c.Token() != "tok" {
		t.Errorf("expected token tok, got %q / %q", token, c.Token())
	}

	due := "2024-05-10T09:00"
	n, err := c.Push(ctx, "dev-1", []model.SyncedTask{{ID: "a", Title: "A", DueAt: &due}})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 synced, got %d", n)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
	if gotSync.DeviceID != "dev-1" || len(gotSync.Tasks) != 1 {
		t.Errorf("unexpected sync body %+v", gotSync)
	}
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error":"deviceId is required"}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Push(context.Background(), "", nil); err == nil {
		t.Error("expected error for 400 reply")
	}
	if _, err := New("").Push(context.Background(), "x", nil); !errors.Is(err, ErrNoServer) {
		t.Errorf("expected ErrNoServer, got %v", err)
	}
}

type recordingPusher struct {
	mu    sync.Mutex
	calls [][]model.SyncedTask
	err   error
}

func (p *recordingPusher) Push(_ context.Context, _ string, tasks []model.SyncedTask) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, tasks)
	return len(tasks), p.err
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestDebouncerFlushSendsLatest(t *testing.T) {
	p := &recordingPusher{}
	d := NewDebouncer(p, "dev", time.Hour, logger.Discard())

	d.Schedule([]model.SyncedTask{{ID: "a"}})
	d.Schedule([]model.SyncedTask{{ID: "a"}, {ID: "b"}})

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if p.count() != 1 || len(p.calls[0]) != 2 {
		t.Fatalf("expected one upload of the latest list, got %v", p.calls)
	}

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if p.count() != 1 {
		t.Errorf("expected nothing pending after flush, got %d uploads", p.count())
	}
}

func TestDebouncerFiresAfterQuietPeriod(t *testing.T) {
	p := &recordingPusher{}
	d := NewDebouncer(p, "dev", 20*time.Millisecond, logger.Discard())

	for i := 0; i < 5; i++ {
		d.Schedule([]model.SyncedTask{{ID: "a"}})
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if p.count() != 1 {
		t.Errorf("expected exactly one upload, got %d", p.count())
	}
}

func TestDebouncerReportsFlushError(t *testing.T) {
	p := &recordingPusher{err: errors.New("offline")}
	d := NewDebouncer(p, "dev", time.Hour, logger.Discard())
	d.Schedule(nil)
	if err := d.Flush(context.Background()); err == nil {
		t.Error("expected flush error")
	}
}

type blockingPusher struct {
	started  chan struct{}
	release  chan struct{}
	finished atomic.Bool
}

func (p *blockingPusher) Push(context.Context, string, []model.SyncedTask) (int, error) {
	close(p.started)
	<-p.release
	p.finished.Store(true)
	return 0, nil
}

func TestDebouncerFlushWaitsForUploadInFlight(t *testing.T) {
	p := &blockingPusher{started: make(chan struct{}), release: make(chan struct{})}
	d := NewDebouncer(p, "dev", 10*time.Millisecond, logger.Discard())
	d.Schedule([]model.SyncedTask{{ID: "a"}})

	select {
	case <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the timer to start an upload")
	}

	done := make(chan error, 1)
	go func() { done <- d.Flush(context.Background()) }()

	select {
	case <-done:
		t.Fatal("expected flush to wait for the upload in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(p.release)
	if err := <-done; err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !p.finished.Load() {
		t.Error("expected the upload to have finished before flush returned")
	}
}

func TestDebouncerFlushHonoursContext(t *testing.T) {
	p := &blockingPusher{started: make(chan struct{}), release: make(chan struct{})}
	defer close(p.release)
	d := NewDebouncer(p, "dev", 10*time.Millisecond, logger.Discard())
	d.Schedule([]model.SyncedTask{{ID: "a"}})
	<-p.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
