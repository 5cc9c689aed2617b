package filter

import (
	"testing"
	"time"

	"focustasks/model"
)

func ptr(s string) *string { return &s }

func ids(list []model.Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fixture() []model.Task {
	return []model.Task{
		{ID: "overdue-today", DueAt: ptr("2024-01-01T09:00"), CreatedAt: 1},
		{ID: "later-today", DueAt: ptr("2024-01-01T18:00"), CreatedAt: 2},
		{ID: "all-day-today", DueAt: ptr("2024-01-01T23:59"), AllDay: true, CreatedAt: 3},
		{ID: "yesterday", DueAt: ptr("2023-12-31T12:00"), CreatedAt: 4},
		{ID: "tomorrow", DueAt: ptr("2024-01-02T08:00"), CreatedAt: 5},
		{ID: "undated", CreatedAt: 6},
		{ID: "done", DueAt: ptr("2023-12-30T08:00"), Completed: true, CreatedAt: 7},
	}
}

func TestApply(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)

	cases := []struct {
		kind Kind
		want []string
	}{
		{All, []string{"yesterday", "overdue-today", "later-today", "all-day-today", "tomorrow", "undated"}},
		{Today, []string{"overdue-today", "later-today", "all-day-today"}},
		{Upcoming, []string{"tomorrow"}},
		{Overdue, []string{"yesterday", "overdue-today"}},
		{Completed, []string{"done"}},
		{Kind("bogus"), []string{"yesterday", "overdue-today", "later-today", "all-day-today", "tomorrow", "undated"}},
	}
	for _, tc := range cases {
		got := ids(Apply(fixture(), tc.kind, now))
		if !equal(got, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.kind, tc.want, got)
		}
	}
}

func TestOverdueTimedTaskIsAlsoToday(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)
	task := model.Task{ID: "x", DueAt: ptr("2024-01-01T09:00"), AllDay: false}

	if !Match(task, Overdue, now) {
		t.Error("expected task in overdue view")
	}
	if !Match(task, Today, now) {
		t.Error("expected task in today view")
	}
	if Match(task, Upcoming, now) {
		t.Error("expected task not in upcoming view")
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)
	got := Summarize(fixture(), now)
	want := Stats{Today: 3, Overdue: 2, Upcoming: 1}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("overdue"); !ok || k != Overdue {
		t.Errorf("expected overdue, got %q (ok=%v)", k, ok)
	}
	if _, ok := ParseKind("later"); ok {
		t.Error("expected unknown kind to be rejected")
	}
}
