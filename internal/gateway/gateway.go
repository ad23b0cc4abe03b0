// Package gateway defines the typed boundary to the remote row store.
// Implementations perform one request per call and return expected
// failures as classified error values; retry policy belongs to callers.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/query"
)

// ErrorKind classifies an expected gateway failure.
type ErrorKind string

const (
	// KindNotFound means the addressed row does not exist.
	KindNotFound ErrorKind = "not_found"

	// KindPermissionDenied means the store rejected the credentials
	// or the row-level policy denied access.
	KindPermissionDenied ErrorKind = "permission_denied"

	// KindValidationFailed means the request violated a constraint,
	// e.g. a missing required field.
	KindValidationFailed ErrorKind = "validation_failed"

	// KindConnectionFailed covers transport errors, timeouts, and
	// server-side faults.
	KindConnectionFailed ErrorKind = "connection_failed"
)

// Error is an expected store failure carried as a value.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a classified gateway error.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or an empty kind when err is not a
// gateway error.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not-found gateway error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsPermissionDenied reports whether err is a permission gateway error.
func IsPermissionDenied(err error) bool { return KindOf(err) == KindPermissionDenied }

// IsValidationFailed reports whether err is a validation gateway error.
func IsValidationFailed(err error) bool { return KindOf(err) == KindValidationFailed }

// IsConnectionFailed reports whether err is a transport gateway error.
func IsConnectionFailed(err error) bool { return KindOf(err) == KindConnectionFailed }

// TaskPatch is a partial update to a task row. Nil fields are left
// untouched by the store.
type TaskPatch struct {
	IsComplete *bool
	AssignedTo *string
	DueDate    *model.Date
}

// Gateway is the request/response boundary to the remote store. Each
// call is a single request that suspends until the remote response;
// no implementation retries on its own.
type Gateway interface {
	// FetchTasks returns the tasks matching pred, ordered by id
	// ascending.
	FetchTasks(ctx context.Context, pred query.Predicate) ([]model.Task, error)

	// InsertTask creates a task row and returns the confirmed record
	// with its server-assigned id.
	InsertTask(ctx context.Context, draft model.TaskDraft) (model.Task, error)

	// UpdateTask applies patch to the task with the given id and
	// returns the confirmed record.
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) (model.Task, error)

	// DeleteTask removes the task with the given id.
	DeleteTask(ctx context.Context, id int64) error

	// FetchNotifications returns the notifications belonging to
	// userID, ordered by created_at descending.
	FetchNotifications(ctx context.Context, userID string) ([]model.Notification, error)

	// ListUsers returns the known principals for assignment choices.
	// Callers treat the result as a cache snapshot, not live data.
	ListUsers(ctx context.Context) ([]model.User, error)
}
