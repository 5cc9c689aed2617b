package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"focustasks/deadline"
	"focustasks/filter"
	"focustasks/model"
	"focustasks/notify"
	"focustasks/tracker"
)

var (
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
	dueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d")).Strikethrough(true)
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
)

// terminalNotifier prints reminders inline with command output.
type terminalNotifier struct {
	w io.Writer
}

func (n terminalNotifier) Notify(_ context.Context, note notify.Notification) error {
	_, err := fmt.Fprintf(n.w, "%s %s\n", alertStyle.Render("🔔 "+note.Title+":"), note.Body)
	return err
}

// shortID is enough of an id to pass back to done/rm.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderTask(t model.Task, types *tracker.Registry, now time.Time) string {
	box := "[ ]"
	title := t.Title
	if t.Completed {
		box = "[x]"
		title = doneStyle.Render(title)
	}

	typ := types.Resolve(t.TypeID)
	color := t.Color
	if color == "" {
		color = typ.Color
	}
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")

	st := deadline.FormatStatus(t, now)
	label := st.String()
	switch st.Kind {
	case deadline.Overdue:
		label = overdueStyle.Render(label)
	case deadline.DueNow, deadline.DueIn:
		label = dueStyle.Render(label)
	default:
		label = mutedStyle.Render(label)
	}
	if st.Kind == deadline.Scheduled || st.Kind == deadline.Overdue {
		label += mutedStyle.Render(" (" + humanize.RelTime(st.Due, now, "ago", "from now") + ")")
	}

	return fmt.Sprintf("%s %s %s %s %s · %s", box, mutedStyle.Render(shortID(t.ID)), swatch, title, mutedStyle.Render("["+typ.Name+"]"), label)
}

func renderStats(s filter.Stats) string {
	return fmt.Sprintf("Today %d · Overdue %d · Upcoming %d", s.Today, s.Overdue, s.Upcoming)
}

func renderType(t model.TaskType, active bool) string {
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("●")
	name := t.Color
	if c, ok := model.PaletteColor(t.Color); ok {
		name = c.Name
	}
	line := fmt.Sprintf("%s %s %s %s", swatch, t.Name, mutedStyle.Render("("+t.ID+")"), mutedStyle.Render(name))
	if active {
		line += mutedStyle.Render(" · default")
	}
	return line
}

func paletteNames() string {
	names := make([]string, 0, len(model.Palette))
	for _, c := range model.Palette {
		names = append(names, strings.ToLower(c.Name))
	}
	return strings.Join(names, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
