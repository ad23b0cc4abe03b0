package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/query"
)

// taskColumns is the column set selected for task reads.
const taskColumns = "id,inserted_at,task,user_id,is_complete,due_date,assigned_to"

// Gateway implements gateway.Gateway over a PostgREST-style endpoint.
type Gateway struct {
	c *client
}

// New creates a REST gateway for the store rooted at baseURL,
// authenticating every request with apiKey.
func New(baseURL, apiKey string, timeout time.Duration) *Gateway {
	return &Gateway{c: newClient(baseURL, apiKey, timeout)}
}

// FetchTasks returns tasks matching pred, ordered by id ascending.
func (g *Gateway) FetchTasks(
	ctx context.Context,
	pred query.Predicate,
) ([]model.Task, error) {
	params := url.Values{}
	params.Set("select", taskColumns)
	params.Set("order", "id.asc")

	switch {
	case pred.AssignedTo != nil:
		params.Set("assigned_to", "eq."+*pred.AssignedTo)
	case pred.CreatorID != nil:
		params.Set("user_id", "eq."+*pred.CreatorID)
	case pred.DueBefore != nil:
		params.Set("due_date", "lt."+pred.DueBefore.String())
	case pred.DueOn != nil:
		params.Set("due_date", "eq."+pred.DueOn.String())
	}

	var rows []taskRow
	if err := g.c.do(ctx, http.MethodGet, "todos", params, nil, &rows); err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// InsertTask creates a task row and returns the confirmed record with
// its server-assigned id.
func (g *Gateway) InsertTask(
	ctx context.Context,
	draft model.TaskDraft,
) (model.Task, error) {
	if strings.TrimSpace(draft.Task) == "" {
		return model.Task{}, gateway.NewError(
			gateway.KindValidationFailed, "task text must not be empty",
		)
	}

	params := url.Values{}
	params.Set("select", taskColumns)

	var rows []taskRow
	err := g.c.do(ctx, http.MethodPost, "todos", params, draftRow(draft), &rows)
	if err != nil {
		return model.Task{}, err
	}
	if len(rows) == 0 {
		return model.Task{}, connectionErr("insert returned no representation")
	}

	return rows[0].toTask()
}

// UpdateTask applies patch to the task with the given id and returns
// the confirmed record.
func (g *Gateway) UpdateTask(
	ctx context.Context,
	id int64,
	patch gateway.TaskPatch,
) (model.Task, error) {
	params := url.Values{}
	params.Set("select", taskColumns)
	params.Set("id", fmt.Sprintf("eq.%d", id))

	var rows []taskRow
	err := g.c.do(ctx, http.MethodPatch, "todos", params, patchRow(patch), &rows)
	if err != nil {
		return model.Task{}, err
	}
	if len(rows) == 0 {
		// The filter matched no rows: the task is gone remotely.
		return model.Task{}, gateway.NewError(
			gateway.KindNotFound, "task %d does not exist", id,
		)
	}

	return rows[0].toTask()
}

// DeleteTask removes the task with the given id.
func (g *Gateway) DeleteTask(ctx context.Context, id int64) error {
	params := url.Values{}
	params.Set("id", fmt.Sprintf("eq.%d", id))

	var rows []taskRow
	if err := g.c.do(ctx, http.MethodDelete, "todos", params, nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return gateway.NewError(gateway.KindNotFound, "task %d does not exist", id)
	}
	return nil
}

// FetchNotifications returns userID's notifications, newest first.
func (g *Gateway) FetchNotifications(
	ctx context.Context,
	userID string,
) ([]model.Notification, error) {
	params := url.Values{}
	params.Set("user_id", "eq."+userID)
	params.Set("order", "created_at.desc")

	var rows []notificationRow
	err := g.c.do(ctx, http.MethodGet, "notifications", params, nil, &rows)
	if err != nil {
		return nil, err
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		n, err := r.toNotification()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// ListUsers returns the known principals for assignment choices.
func (g *Gateway) ListUsers(ctx context.Context) ([]model.User, error) {
	params := url.Values{}
	params.Set("select", "id,email")
	params.Set("order", "email.asc")

	var users []model.User
	if err := g.c.do(ctx, http.MethodGet, "users", params, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// statusErr maps an HTTP failure status to a classified gateway error,
// pulling the store's message out of the body when one is present.
func statusErr(status int, method, table string, body []byte) error {
	msg := fmt.Sprintf("%s %s returned status %d", method, table, status)
	var er errorResponse
	if jsonErr := unmarshalLoose(body, &er); jsonErr == nil && er.Message != "" {
		msg = er.Message
		if er.Details != "" {
			msg += ": " + er.Details
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return gateway.NewError(gateway.KindPermissionDenied, "%s", msg)
	case status == http.StatusNotFound:
		return gateway.NewError(gateway.KindNotFound, "%s", msg)
	case status == http.StatusBadRequest || status == http.StatusConflict ||
		status == http.StatusUnprocessableEntity:
		return gateway.NewError(gateway.KindValidationFailed, "%s", msg)
	default:
		return gateway.NewError(gateway.KindConnectionFailed, "%s", msg)
	}
}

// connectionErr builds a connection-class gateway error.
func connectionErr(format string, args ...interface{}) error {
	return gateway.NewError(gateway.KindConnectionFailed, format, args...)
}
