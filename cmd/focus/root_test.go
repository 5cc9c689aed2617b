package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"focustasks/connection"
	"focustasks/logger"
	"focustasks/model"
	"focustasks/services"
	"focustasks/storage"
	"focustasks/store"
	"focustasks/syncclient"
	"focustasks/tracker"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type cli struct {
	db     string
	server string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{db: filepath.Join(t.TempDir(), "focus.db")}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := &App{Now: func() time.Time { return testNow }}
	cmd := newRootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", c.db, "--tz", "UTC", "--server", c.server, "--log-level", "error"}, args...))
	err := cmd.Execute()
	if err != nil && app.kv != nil {
		_ = app.kv.Close()
	}
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	if err != nil {
		t.Fatalf("focus %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (c *cli) tasks(t *testing.T) []model.Task {
	t.Helper()
	kv, err := storage.OpenSQLite(c.db)
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	raw, _, err := kv.Get(context.Background(), tracker.KeyTasks)
	if err != nil {
		t.Fatal(err)
	}
	var list []model.Task
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatalf("decode tasks %q: %v", raw, err)
	}
	return list
}

func TestAddAndList(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "add", "Pay", "rent", "--date", "2024-05-10", "--time", "09:00")
	if !strings.Contains(out, "Added") || !strings.Contains(out, "Pay rent") {
		t.Errorf("unexpected add output:\n%s", out)
	}
	c.mustRun(t, "add", "Renew passport", "--date", "2024-06-01", "--all-day", "--type", "errands")
	c.mustRun(t, "add", "Someday")

	list := c.tasks(t)
	if len(list) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(list))
	}

	out = c.mustRun(t, "list", "--filter", "overdue")
	if !strings.Contains(out, "Pay rent") || !strings.Contains(out, "Overdue") {
		t.Errorf("expected overdue task listed:\n%s", out)
	}
	if strings.Contains(out, "Renew passport") {
		t.Errorf("upcoming task leaked into overdue view:\n%s", out)
	}
	if !strings.Contains(out, "Today 1 · Overdue 1 · Upcoming 1") {
		t.Errorf("expected stats line:\n%s", out)
	}

	out = c.mustRun(t, "ls")
	for _, title := range []string{"Pay rent", "Renew passport", "Someday", "No deadline"} {
		if !strings.Contains(out, title) {
			t.Errorf("expected %q in full list:\n%s", title, out)
		}
	}

	if _, err := c.run(t, "list", "--filter", "later"); err == nil {
		t.Error("expected unknown filter to fail")
	}
}

func TestAddValidation(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "add", "Call", "--date", "2024-05-10")
	if !errors.Is(err, tracker.ErrMissingTime) || !strings.Contains(err.Error(), "--all-day") {
		t.Errorf("expected missing time hint, got %v", err)
	}
	if _, err := c.run(t, "add", "   "); !errors.Is(err, tracker.ErrEmptyTitle) {
		t.Errorf("expected empty title error, got %v", err)
	}
	if _, err := c.run(t, "add", "Gym", "--type", "nope"); !errors.Is(err, tracker.ErrTypeNotFound) {
		t.Errorf("expected unknown type error, got %v", err)
	}
}

func TestDoneRemoveClear(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "add", "One")
	c.mustRun(t, "add", "Two")

	list := c.tasks(t)
	var one string
	for _, task := range list {
		if task.Title == "One" {
			one = task.ID
		}
	}

	if out := c.mustRun(t, "done", one[:8]); !strings.Contains(out, "Completed One") {
		t.Errorf("unexpected done output: %s", out)
	}
	if out := c.mustRun(t, "clear"); !strings.Contains(out, "Cleared 1 completed task") {
		t.Errorf("unexpected clear output: %s", out)
	}

	list = c.tasks(t)
	if len(list) != 1 || list[0].Title != "Two" {
		t.Fatalf("expected only Two left, got %+v", list)
	}
	if out := c.mustRun(t, "rm", list[0].ID); !strings.Contains(out, "Deleted Two") {
		t.Errorf("unexpected rm output: %s", out)
	}
	if _, err := c.run(t, "rm", "missing"); !errors.Is(err, tracker.ErrTaskNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestNotifyOnAndScan(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "add", "Stand-up", "--date", "2024-05-10", "--time", "09:00")
	c.mustRun(t, "add", "All day", "--date", "2024-05-09", "--all-day")

	if out := c.mustRun(t, "notify", "status"); !strings.Contains(out, "Reminders off") {
		t.Errorf("expected reminders off by default: %s", out)
	}

	out := c.mustRun(t, "notify", "on")
	if !strings.Contains(out, "Task overdue:") || !strings.Contains(out, "Stand-up (180 min late)") {
		t.Errorf("expected overdue reminder:\n%s", out)
	}
	if strings.Contains(out, "All day") {
		t.Errorf("all-day task must not be reminded:\n%s", out)
	}
	if !strings.Contains(out, "1 reminder sent") {
		t.Errorf("expected one reminder counted:\n%s", out)
	}

	if out := c.mustRun(t, "notify", "scan"); !strings.Contains(out, "0 reminders sent") {
		t.Errorf("expected reminder deduplicated across runs:\n%s", out)
	}

	c.mustRun(t, "notify", "off")
	if out := c.mustRun(t, "notify", "status"); !strings.Contains(out, "Reminders off") {
		t.Errorf("expected reminders off: %s", out)
	}
}

func TestTypesAndTheme(t *testing.T) {
	c := newCLI(t)

	if out := c.mustRun(t, "types", "add", "Gym", "--color", "sea"); !strings.Contains(out, "Added type") {
		t.Errorf("unexpected types add output: %s", out)
	}
	out := c.mustRun(t, "types")
	for _, name := range []string{"Personal", "Work", "Errands", "Gym"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %s in types list:\n%s", name, out)
		}
	}
	if _, err := c.run(t, "types", "add", "Chores", "--color", "neon"); !errors.Is(err, tracker.ErrUnknownColor) {
		t.Errorf("expected unknown color, got %v", err)
	}
	if _, err := c.run(t, "types", "add", "gym"); !errors.Is(err, tracker.ErrDuplicateTypeName) {
		t.Errorf("expected duplicate name, got %v", err)
	}

	c.mustRun(t, "add", "Swim", "--type", "Gym")
	if out := c.mustRun(t, "types", "rm", "gym"); !strings.Contains(out, "Deleted type Gym") {
		t.Errorf("unexpected types rm output: %s", out)
	}
	list := c.tasks(t)
	if len(list) != 1 || list[0].TypeID != "personal" {
		t.Errorf("expected task moved to the first type, got %+v", list)
	}

	if out := c.mustRun(t, "theme"); !strings.Contains(out, "Theme: light") {
		t.Errorf("expected light by default: %s", out)
	}
	if out := c.mustRun(t, "theme", "dark"); !strings.Contains(out, "Theme: dark") {
		t.Errorf("expected dark: %s", out)
	}
	if _, err := c.run(t, "theme", "blue"); !errors.Is(err, tracker.ErrUnknownTheme) {
		t.Errorf("expected unknown theme, got %v", err)
	}
}

func TestSyncWithoutServer(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run(t, "sync"); !errors.Is(err, syncclient.ErrNoServer) {
		t.Errorf("expected ErrNoServer, got %v", err)
	}
}

func TestRegisterAndSync(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := store.NewMemory()
	relay := services.NewRelay(repo, services.RelayOptions{})
	srv := httptest.NewServer(connection.NewRouter(connection.Deps{
		Relay:      relay,
		Dispatcher: services.NewDispatcher(relay, nil, ""),
		Issuer:     services.NewTokenIssuer("s3cret"),
		Logger:     logger.Discard(),
	}))
	defer srv.Close()

	c := newCLI(t)
	c.server = srv.URL
	c.mustRun(t, "add", "Call mom", "--date", "2024-05-10", "--time", "18:00")

	if _, err := c.run(t, "register", "--endpoint", "https://push.example.com/x"); err == nil {
		t.Fatal("expected missing keys to be rejected")
	}
	out := c.mustRun(t, "register", "--endpoint", "https://push.example.com/x", "--p256dh", "p", "--auth", "a")
	if !strings.Contains(out, "Registered device") {
		t.Errorf("unexpected register output: %s", out)
	}

	doc, err := repo.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Devices) != 1 {
		t.Fatalf("expected one device, got %v", doc.Devices)
	}
	var deviceID string
	for id, d := range doc.Devices {
		deviceID = id
		if d.Timezone != "UTC" || d.Subscription == nil {
			t.Errorf("unexpected device %+v", d)
		}
	}
	if got := doc.TasksByDevice[deviceID]; len(got) != 1 || got[0].Title != "Call mom" {
		t.Errorf("expected task synced on register, got %+v", got)
	}

	// Later runs reuse the stored token; the relay requires it.
	c.mustRun(t, "add", "Buy milk")
	if out := c.mustRun(t, "sync"); !strings.Contains(out, "Synced 2 tasks") {
		t.Errorf("unexpected sync output: %s", out)
	}
	doc, _ = repo.Load(context.Background())
	if got := doc.TasksByDevice[deviceID]; len(got) != 2 {
		t.Errorf("expected 2 synced tasks, got %+v", got)
	}
}
