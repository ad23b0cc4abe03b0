// Package view derives the rendered task list from the board's state
// and the active filter. The projection is pure: the same inputs
// always yield the same output, and nothing is cached between calls.
package view

import (
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/query"
)

// Project returns the tasks visible under the given filter mode,
// preserving the input order. today must be captured once per call
// site, not recomputed per task, so overdue and due-today never
// overlap across a midnight boundary.
func Project(
	tasks []model.Task,
	mode query.Mode,
	principalID string,
	today model.Date,
) []model.Task {
	pred := query.For(mode, principalID, today)

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
