// Package sqlite implements the store gateway against a local SQLite
// database. It exists for offline use and for tests: together with an
// attached realtime.Broker it is a complete stand-in for the remote
// row store plus its push channel.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/query"
	"github.com/nhle/taskboard/internal/realtime"
)

// Gateway implements gateway.Gateway using a local SQLite database.
type Gateway struct {
	db     *sqlx.DB
	broker *realtime.Broker
}

// New opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations. The broker may be nil
// when no push delivery is needed (e.g. one-shot tooling).
func New(dbPath string, broker *realtime.Broker) (*Gateway, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	g := &Gateway{db: db, broker: broker}
	if err := g.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return g, nil
}

// Close closes the underlying database connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (g *Gateway) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := g.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = g.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := g.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// FetchTasks returns tasks matching pred, ordered by id ascending.
func (g *Gateway) FetchTasks(
	ctx context.Context,
	pred query.Predicate,
) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	switch {
	case pred.AssignedTo != nil:
		conditions = append(conditions, "assigned_to = ?")
		args = append(args, *pred.AssignedTo)
	case pred.CreatorID != nil:
		conditions = append(conditions, "user_id = ?")
		args = append(args, *pred.CreatorID)
	case pred.DueBefore != nil:
		conditions = append(conditions, "due_date IS NOT NULL AND due_date < ?")
		args = append(args, pred.DueBefore.String())
	case pred.DueOn != nil:
		conditions = append(conditions, "due_date = ?")
		args = append(args, pred.DueOn.String())
	}

	q := "SELECT id, task, user_id, assigned_to, due_date, is_complete, inserted_at FROM tasks"
	if len(conditions) > 0 {
		q += " WHERE " + strings.Join(conditions, " AND ")
	}
	q += " ORDER BY id ASC"

	rows, err := g.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("querying tasks", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("reading task rows", err)
	}
	return tasks, nil
}

// InsertTask creates a task row and returns the confirmed record.
func (g *Gateway) InsertTask(
	ctx context.Context,
	draft model.TaskDraft,
) (model.Task, error) {
	if strings.TrimSpace(draft.Task) == "" {
		return model.Task{}, gateway.NewError(
			gateway.KindValidationFailed, "task text must not be empty",
		)
	}
	if draft.CreatorID == "" {
		return model.Task{}, gateway.NewError(
			gateway.KindValidationFailed, "task creator must be set",
		)
	}

	var due interface{}
	if draft.DueDate != nil {
		due = draft.DueDate.String()
	}
	var assigned interface{}
	if draft.AssignedTo != nil {
		assigned = *draft.AssignedTo
	}

	res, err := g.db.ExecContext(ctx, `
		INSERT INTO tasks (task, user_id, assigned_to, due_date, is_complete, inserted_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		draft.Task, draft.CreatorID, assigned, due, time.Now().UTC(),
	)
	if err != nil {
		return model.Task{}, storeErr("inserting task", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Task{}, storeErr("reading inserted task id", err)
	}

	return g.getTask(ctx, id)
}

// UpdateTask applies patch to the task with the given id and returns
// the confirmed record.
func (g *Gateway) UpdateTask(
	ctx context.Context,
	id int64,
	patch gateway.TaskPatch,
) (model.Task, error) {
	var sets []string
	var args []interface{}

	if patch.IsComplete != nil {
		sets = append(sets, "is_complete = ?")
		args = append(args, boolToInt(*patch.IsComplete))
	}
	if patch.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *patch.AssignedTo)
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, patch.DueDate.String())
	}

	if len(sets) == 0 {
		return g.getTask(ctx, id)
	}

	args = append(args, id)
	res, err := g.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return model.Task{}, storeErr(fmt.Sprintf("updating task %d", id), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return model.Task{}, storeErr("reading update result", err)
	}
	if affected == 0 {
		return model.Task{}, gateway.NewError(
			gateway.KindNotFound, "task %d does not exist", id,
		)
	}

	return g.getTask(ctx, id)
}

// DeleteTask removes the task with the given id.
func (g *Gateway) DeleteTask(ctx context.Context, id int64) error {
	res, err := g.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return storeErr(fmt.Sprintf("deleting task %d", id), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr("reading delete result", err)
	}
	if affected == 0 {
		return gateway.NewError(gateway.KindNotFound, "task %d does not exist", id)
	}
	return nil
}

// FetchNotifications returns userID's notifications, newest first.
func (g *Gateway) FetchNotifications(
	ctx context.Context,
	userID string,
) ([]model.Notification, error) {
	rows, err := g.db.QueryxContext(ctx, `
		SELECT id, user_id, message, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, storeErr("querying notifications", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("reading notification rows", err)
	}
	return notifications, nil
}

// ListUsers returns the known principals ordered by email.
func (g *Gateway) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := g.db.QueryxContext(ctx, "SELECT id, email FROM users ORDER BY email")
	if err != nil {
		return nil, storeErr("querying users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email); err != nil {
			return nil, storeErr("scanning user row", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("reading user rows", err)
	}
	return users, nil
}

// AddNotification creates a notification row and publishes the INSERT
// event to the attached broker. In the real system this happens
// server-side; the local store performs it for tooling and tests.
func (g *Gateway) AddNotification(
	ctx context.Context,
	userID, message string,
) (model.Notification, error) {
	if userID == "" || message == "" {
		return model.Notification{}, gateway.NewError(
			gateway.KindValidationFailed, "notification user and message must be set",
		)
	}

	createdAt := time.Now().UTC()
	res, err := g.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, message, is_read, created_at)
		VALUES (?, ?, 0, ?)`,
		userID, message, createdAt,
	)
	if err != nil {
		return model.Notification{}, storeErr("inserting notification", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Notification{}, storeErr("reading inserted notification id", err)
	}

	n := model.Notification{
		ID:        id,
		UserID:    userID,
		Message:   message,
		CreatedAt: createdAt,
	}

	if g.broker != nil {
		g.broker.Publish(realtime.NotificationTopic(userID), realtime.Event{
			Type:   realtime.EventInsert,
			Record: n,
		})
	}

	return n, nil
}

// UpsertUser inserts or replaces a principal entry. Used by seeding
// and tests; the principal directory is otherwise read-only.
func (g *Gateway) UpsertUser(ctx context.Context, u model.User) error {
	_, err := g.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO users (id, email) VALUES (?, ?)",
		u.ID, u.Email,
	)
	if err != nil {
		return storeErr(fmt.Sprintf("upserting user %s", u.ID), err)
	}
	return nil
}

// getTask reads a single task row by id.
func (g *Gateway) getTask(ctx context.Context, id int64) (model.Task, error) {
	rows, err := g.db.QueryxContext(ctx, `
		SELECT id, task, user_id, assigned_to, due_date, is_complete, inserted_at
		FROM tasks WHERE id = ?`,
		id,
	)
	if err != nil {
		return model.Task{}, storeErr(fmt.Sprintf("getting task %d", id), err)
	}
	defer rows.Close()

	if !rows.Next() {
		return model.Task{}, gateway.NewError(
			gateway.KindNotFound, "task %d does not exist", id,
		)
	}
	return scanTask(rows)
}

// scanTask scans a task row, mapping nullable columns onto pointer
// fields.
func scanTask(rows *sqlx.Rows) (model.Task, error) {
	var (
		t          model.Task
		assignedTo sql.NullString
		dueDate    sql.NullString
		isComplete int
		insertedAt time.Time
	)

	err := rows.Scan(
		&t.ID, &t.Task, &t.CreatorID,
		&assignedTo, &dueDate, &isComplete, &insertedAt,
	)
	if err != nil {
		return model.Task{}, storeErr("scanning task row", err)
	}

	if assignedTo.Valid && assignedTo.String != "" {
		v := assignedTo.String
		t.AssignedTo = &v
	}
	if dueDate.Valid && dueDate.String != "" {
		d, err := model.ParseDate(dueDate.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %d: %w", t.ID, err)
		}
		t.DueDate = &d
	}
	t.IsComplete = isComplete != 0
	t.InsertedAt = insertedAt

	return t, nil
}

// scanNotification scans a notification row.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		isRead    int
		createdAt time.Time
	)

	err := rows.Scan(&n.ID, &n.UserID, &n.Message, &isRead, &createdAt)
	if err != nil {
		return model.Notification{}, storeErr("scanning notification row", err)
	}

	n.IsRead = isRead != 0
	n.CreatedAt = createdAt
	return n, nil
}

// storeErr wraps an unexpected database error as a connection-class
// gateway error. Missing rows are classified as not-found.
func storeErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.NewError(gateway.KindNotFound, "%s: no such row", op)
	}
	return gateway.NewError(gateway.KindConnectionFailed, "%s: %v", op, err)
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
