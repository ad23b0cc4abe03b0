package tasklist

import (
	"strings"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task

	// AssigneeEmail is resolved from the directory snapshot.
	AssigneeEmail string

	// Today is the date the projection was computed against; due-date
	// badges must agree with the active filter's boundary.
	Today model.Date
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Task }

// Title returns the task text, struck through once completed.
func (i TaskItem) Title() string {
	if i.Task.IsComplete {
		return theme.DoneStyle.Render(i.Task.Task)
	}
	return i.Task.Task
}

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	var parts []string

	if i.AssigneeEmail != "" {
		parts = append(parts, "→ "+i.AssigneeEmail)
	}

	if due := i.Task.DueDate; due != nil {
		label := "due " + due.String()
		switch {
		case due.Before(i.Today):
			label = theme.OverdueStyle.Render(label + " (overdue)")
		case *due == i.Today:
			label = theme.DueTodayStyle.Render(label + " (today)")
		}
		parts = append(parts, label)
	}

	if len(parts) == 0 {
		return "no assignee, no deadline"
	}
	return strings.Join(parts, " | ")
}
