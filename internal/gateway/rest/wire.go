package rest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/model"
)

// The wire row types mirror the remote schema, where most task columns
// are nullable. Adapters below convert to the internal model so the
// rest of the client never sees the external schema's quirks.

// taskRow is the remote representation of a task.
type taskRow struct {
	ID         int64   `json:"id"`
	Task       *string `json:"task"`
	UserID     string  `json:"user_id"`
	AssignedTo *string `json:"assigned_to"`
	DueDate    *string `json:"due_date"`
	IsComplete *bool   `json:"is_complete"`
	InsertedAt *string `json:"inserted_at"`
}

// notificationRow is the remote representation of a notification.
type notificationRow struct {
	ID        int64   `json:"id"`
	UserID    string  `json:"user_id"`
	Message   *string `json:"message"`
	IsRead    *bool   `json:"is_read"`
	CreatedAt *string `json:"created_at"`
}

// toTask converts a wire row into the internal task type, normalizing
// null columns.
func (r taskRow) toTask() (model.Task, error) {
	t := model.Task{
		ID:        r.ID,
		CreatorID: r.UserID,
	}

	if r.Task != nil {
		t.Task = *r.Task
	}
	if r.AssignedTo != nil && *r.AssignedTo != "" {
		v := *r.AssignedTo
		t.AssignedTo = &v
	}
	if r.DueDate != nil && *r.DueDate != "" {
		d, err := model.ParseDate(*r.DueDate)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
		}
		t.DueDate = &d
	}
	if r.IsComplete != nil {
		t.IsComplete = *r.IsComplete
	}
	if r.InsertedAt != nil && *r.InsertedAt != "" {
		ts, err := parseTimestamp(*r.InsertedAt)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
		}
		t.InsertedAt = ts
	}

	return t, nil
}

// toNotification converts a wire row into the internal notification
// type.
func (r notificationRow) toNotification() (model.Notification, error) {
	n := model.Notification{
		ID:     r.ID,
		UserID: r.UserID,
	}

	if r.Message != nil {
		n.Message = *r.Message
	}
	if r.IsRead != nil {
		n.IsRead = *r.IsRead
	}
	if r.CreatedAt != nil && *r.CreatedAt != "" {
		ts, err := parseTimestamp(*r.CreatedAt)
		if err != nil {
			return model.Notification{}, fmt.Errorf("notification %d: %w", r.ID, err)
		}
		n.CreatedAt = ts
	}

	return n, nil
}

// EventRecord decodes a push payload's record into the internal
// notification type. The realtime channel delivers the same row shape
// as the REST reads.
func EventRecord(payload []byte) (model.Notification, error) {
	var row notificationRow
	if err := json.Unmarshal(payload, &row); err != nil {
		return model.Notification{}, fmt.Errorf("decoding event record: %w", err)
	}
	return row.toNotification()
}

// draftRow maps an insert request onto the remote column names. Nil
// optionals are omitted so the store applies its defaults.
func draftRow(d model.TaskDraft) map[string]interface{} {
	row := map[string]interface{}{
		"task":    d.Task,
		"user_id": d.CreatorID,
	}
	if d.AssignedTo != nil {
		row["assigned_to"] = *d.AssignedTo
	}
	if d.DueDate != nil {
		row["due_date"] = d.DueDate.String()
	}
	return row
}

// patchRow maps a partial update onto the remote column names.
func patchRow(p gateway.TaskPatch) map[string]interface{} {
	row := make(map[string]interface{})
	if p.IsComplete != nil {
		row["is_complete"] = *p.IsComplete
	}
	if p.AssignedTo != nil {
		row["assigned_to"] = *p.AssignedTo
	}
	if p.DueDate != nil {
		row["due_date"] = p.DueDate.String()
	}
	return row
}

// timestampLayouts lists the timestamp formats the store emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a remote timestamp in any accepted layout.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q", s)
}

// unmarshalLoose decodes JSON without failing on an empty body.
func unmarshalLoose(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("empty body")
	}
	return json.Unmarshal(data, v)
}
