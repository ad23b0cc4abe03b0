package model

import "time"

// Task is a shared, mutable task record owned by the remote store.
type Task struct {
	// ID is the server-assigned unique identifier. It is immutable once
	// assigned; a draft has no ID until the insert is confirmed.
	ID int64 `json:"id" db:"id"`

	// Task is the human-readable task text.
	Task string `json:"task" db:"task"`

	// CreatorID identifies the principal that created the task.
	CreatorID string `json:"user_id" db:"user_id"`

	// AssignedTo identifies the principal the task is assigned to,
	// or nil when unassigned.
	AssignedTo *string `json:"assigned_to" db:"assigned_to"`

	// DueDate is the calendar date the task is due, or nil when the
	// task has no deadline.
	DueDate *Date `json:"due_date" db:"due_date"`

	// IsComplete reports whether the task has been marked done.
	IsComplete bool `json:"is_complete" db:"is_complete"`

	// InsertedAt is when the row was created in the remote store.
	InsertedAt time.Time `json:"inserted_at" db:"inserted_at"`
}

// TaskDraft is a client-side insert request. The remote store assigns
// the ID and InsertedAt on confirmation.
type TaskDraft struct {
	Task       string  `json:"task"`
	CreatorID  string  `json:"user_id"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	DueDate    *Date   `json:"due_date,omitempty"`
}

// User is a read-only principal reference, used to populate assignment
// choices and filter predicates. Owned by an external directory.
type User struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
}
