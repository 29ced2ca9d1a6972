// Package format renders events and tasks into single display lines.
// These lines double as the candidate pool for fuzzy search, so the
// templates are fixed and field order matters.
package format

import (
	"strings"

	"daybook/internal/model"
)

const (
	clockLayout = "15:04"
	dueLayout   = "2006-01-02 15:04"
)

// EventLine renders one calendar event. Each clause appears only when its
// source field is non-empty; the time clause is always present because
// Start/End are required on every event.
func EventLine(e model.Event) string {
	var b strings.Builder
	if e.Summary != "" {
		b.WriteString(e.Summary)
		b.WriteString(", ")
	}
	if e.Description != "" {
		b.WriteString("a ")
		b.WriteString(e.Description)
		b.WriteString(" ")
	}
	b.WriteString("from ")
	b.WriteString(e.Start.Format(clockLayout))
	b.WriteString(" to ")
	b.WriteString(e.End.Format(clockLayout))
	b.WriteString(" ")
	if e.Location != "" {
		b.WriteString("at ")
		b.WriteString(e.Location)
		b.WriteString(" ")
	}
	return b.String()
}

// TaskLine renders one task item. All four fields are required by the
// time a Task reaches this point.
func TaskLine(t model.Task) string {
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteString(", a ")
	b.WriteString(t.Kind)
	b.WriteString(" for ")
	b.WriteString(t.Group)
	b.WriteString(" due on ")
	b.WriteString(t.Due.Format(dueLayout))
	return b.String()
}

// EventLines maps events to display lines, preserving order.
func EventLines(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, EventLine(e))
	}
	return out
}

// TaskLines maps tasks to display lines, preserving order.
func TaskLines(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskLine(t))
	}
	return out
}
