// Package query turns a named filter mode into a predicate over task
// records. Predicates are plain values: gateways translate them into
// their native query form, and the view projection evaluates them
// in memory with Match.
package query

import (
	"fmt"

	"github.com/nhle/taskboard/internal/model"
)

// Mode names one of the built-in task filters.
type Mode string

const (
	ModeAll          Mode = "all"
	ModeAssignedToMe Mode = "assigned_to_me"
	ModeCreatedByMe  Mode = "created_by_me"
	ModeOverdue      Mode = "overdue"
	ModeDueToday     Mode = "due_today"
)

// Modes lists all filter modes in display order.
var Modes = []Mode{
	ModeAll,
	ModeAssignedToMe,
	ModeCreatedByMe,
	ModeOverdue,
	ModeDueToday,
}

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown filter mode %q", s)
}

// Label returns the human-readable name shown in the filter bar.
func (m Mode) Label() string {
	switch m {
	case ModeAssignedToMe:
		return "Assigned to Me"
	case ModeCreatedByMe:
		return "Created by Me"
	case ModeOverdue:
		return "Overdue"
	case ModeDueToday:
		return "Due Today"
	default:
		return "All Tasks"
	}
}

func (m Mode) String() string { return string(m) }

// Predicate is a server-evaluable filter condition over task records.
// At most one of the condition fields is set; the zero value accepts
// every task.
type Predicate struct {
	// AssignedTo matches tasks assigned to this principal.
	AssignedTo *string

	// CreatorID matches tasks created by this principal.
	CreatorID *string

	// DueBefore matches tasks with a due date strictly earlier than
	// this date. Tasks without a due date never match.
	DueBefore *model.Date

	// DueOn matches tasks due exactly on this date. Tasks without a
	// due date never match.
	DueOn *model.Date
}

// For builds the predicate for a filter mode. The caller computes
// today exactly once per fetch so that the overdue and due-today
// classes stay disjoint across a midnight boundary.
func For(mode Mode, principalID string, today model.Date) Predicate {
	switch mode {
	case ModeAssignedToMe:
		return Predicate{AssignedTo: &principalID}
	case ModeCreatedByMe:
		return Predicate{CreatorID: &principalID}
	case ModeOverdue:
		return Predicate{DueBefore: &today}
	case ModeDueToday:
		return Predicate{DueOn: &today}
	default:
		return Predicate{}
	}
}

// Match evaluates the predicate against a single task in memory.
func (p Predicate) Match(t model.Task) bool {
	switch {
	case p.AssignedTo != nil:
		return t.AssignedTo != nil && *t.AssignedTo == *p.AssignedTo
	case p.CreatorID != nil:
		return t.CreatorID == *p.CreatorID
	case p.DueBefore != nil:
		return t.DueDate != nil && t.DueDate.Before(*p.DueBefore)
	case p.DueOn != nil:
		return t.DueDate != nil && *t.DueDate == *p.DueOn
	default:
		return true
	}
}
