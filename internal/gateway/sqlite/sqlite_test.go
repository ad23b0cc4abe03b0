package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/query"
	"github.com/nhle/taskboard/internal/realtime"
	"github.com/nhle/taskboard/tests/testutil"
)

func strPtr(s string) *string { return &s }

func datePtr(s string) *model.Date {
	d := model.MustDate(s)
	return &d
}

func mustInsert(t *testing.T, gw interface {
	InsertTask(context.Context, model.TaskDraft) (model.Task, error)
}, draft model.TaskDraft) model.Task {
	t.Helper()
	task, err := gw.InsertTask(context.Background(), draft)
	if err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	return task
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)

	first := mustInsert(t, gw, model.TaskDraft{Task: "first", CreatorID: "u1"})
	second := mustInsert(t, gw, model.TaskDraft{Task: "second", CreatorID: "u1"})

	if first.ID == 0 || second.ID <= first.ID {
		t.Errorf("ids = %d, %d; want increasing server-assigned ids", first.ID, second.ID)
	}
	if first.InsertedAt.IsZero() {
		t.Error("InsertedAt should be set by the store")
	}
}

func TestInsertValidation(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)

	_, err := gw.InsertTask(context.Background(), model.TaskDraft{Task: "   ", CreatorID: "u1"})
	if !gateway.IsValidationFailed(err) {
		t.Errorf("blank task: err = %v, want validation failure", err)
	}

	_, err = gw.InsertTask(context.Background(), model.TaskDraft{Task: "no creator"})
	if !gateway.IsValidationFailed(err) {
		t.Errorf("missing creator: err = %v, want validation failure", err)
	}
}

func TestFetchTasksOrderAndPredicates(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)
	ctx := context.Background()

	mustInsert(t, gw, model.TaskDraft{Task: "mine, overdue", CreatorID: "u1", DueDate: datePtr("2024-01-01")})
	mustInsert(t, gw, model.TaskDraft{Task: "assigned to me", CreatorID: "u2", AssignedTo: strPtr("u1"), DueDate: datePtr("2024-01-02")})
	mustInsert(t, gw, model.TaskDraft{Task: "no deadline", CreatorID: "u2"})

	all, err := gw.FetchTasks(ctx, query.Predicate{})
	if err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID < all[i-1].ID {
			t.Error("fetch result must be ordered by id ascending")
		}
	}

	today := model.MustDate("2024-01-02")

	overdue, err := gw.FetchTasks(ctx, query.For(query.ModeOverdue, "u1", today))
	if err != nil {
		t.Fatalf("overdue fetch: %v", err)
	}
	if len(overdue) != 1 || overdue[0].Task != "mine, overdue" {
		t.Errorf("overdue = %+v, want only the 2024-01-01 task", overdue)
	}

	dueToday, err := gw.FetchTasks(ctx, query.For(query.ModeDueToday, "u1", today))
	if err != nil {
		t.Fatalf("due_today fetch: %v", err)
	}
	if len(dueToday) != 1 || dueToday[0].Task != "assigned to me" {
		t.Errorf("due_today = %+v, want only the 2024-01-02 task", dueToday)
	}

	assigned, err := gw.FetchTasks(ctx, query.For(query.ModeAssignedToMe, "u1", today))
	if err != nil {
		t.Fatalf("assigned fetch: %v", err)
	}
	if len(assigned) != 1 || assigned[0].AssignedTo == nil || *assigned[0].AssignedTo != "u1" {
		t.Errorf("assigned = %+v", assigned)
	}

	created, err := gw.FetchTasks(ctx, query.For(query.ModeCreatedByMe, "u2", today))
	if err != nil {
		t.Fatalf("created fetch: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("created = %+v, want 2 tasks", created)
	}
}

func TestNullDueDateExcludedFromDateFilters(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)
	ctx := context.Background()

	mustInsert(t, gw, model.TaskDraft{Task: "no deadline", CreatorID: "u1"})

	today := model.MustDate("2024-06-15")
	for _, mode := range []query.Mode{query.ModeOverdue, query.ModeDueToday} {
		got, err := gw.FetchTasks(ctx, query.For(mode, "u1", today))
		if err != nil {
			t.Fatalf("%s fetch: %v", mode, err)
		}
		if len(got) != 0 {
			t.Errorf("%s: a task without a due date must not match", mode)
		}
	}
}

func TestUpdateTask(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)
	ctx := context.Background()

	task := mustInsert(t, gw, model.TaskDraft{Task: "toggle me", CreatorID: "u1"})

	done := true
	updated, err := gw.UpdateTask(ctx, task.ID, gateway.TaskPatch{IsComplete: &done})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !updated.IsComplete {
		t.Error("confirmed record should reflect the patch")
	}
	if updated.ID != task.ID {
		t.Error("id must be immutable across updates")
	}

	_, err = gw.UpdateTask(ctx, 9999, gateway.TaskPatch{IsComplete: &done})
	if !gateway.IsNotFound(err) {
		t.Errorf("missing id: err = %v, want not-found", err)
	}
}

func TestDeleteTask(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)
	ctx := context.Background()

	task := mustInsert(t, gw, model.TaskDraft{Task: "delete me", CreatorID: "u1"})

	if err := gw.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := gw.DeleteTask(ctx, task.ID); !gateway.IsNotFound(err) {
		t.Errorf("second delete: err = %v, want not-found", err)
	}
}

func TestNotificationsNewestFirst(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)
	ctx := context.Background()

	first, err := gw.AddNotification(ctx, "u1", "first")
	if err != nil {
		t.Fatalf("AddNotification: %v", err)
	}
	second, err := gw.AddNotification(ctx, "u1", "second")
	if err != nil {
		t.Fatalf("AddNotification: %v", err)
	}
	if _, err := gw.AddNotification(ctx, "u2", "other user"); err != nil {
		t.Fatalf("AddNotification: %v", err)
	}

	got, err := gw.FetchNotifications(ctx, "u1")
	if err != nil {
		t.Fatalf("FetchNotifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Errorf("order = [%d %d], want newest first [%d %d]",
			got[0].ID, got[1].ID, second.ID, first.ID)
	}
}

func TestAddNotificationPublishesEvent(t *testing.T) {
	gw, broker := testutil.NewTestGateway(t)
	ctx := context.Background()

	sub, err := broker.Subscribe(realtime.NotificationTopic("u1"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Cancel()

	created, err := gw.AddNotification(ctx, "u1", "hello")
	if err != nil {
		t.Fatalf("AddNotification: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Type != realtime.EventInsert {
			t.Errorf("event type = %s, want INSERT", ev.Type)
		}
		if ev.Record.ID != created.ID || ev.Record.Message != "hello" {
			t.Errorf("event record = %+v", ev.Record)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered for the inserted notification")
	}
}

func TestUsers(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)
	ctx := context.Background()

	if err := gw.UpsertUser(ctx, model.User{ID: "u2", Email: "zoe@example.com"}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := gw.UpsertUser(ctx, model.User{ID: "u1", Email: "amy@example.com"}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	users, err := gw.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[0].Email != "amy@example.com" {
		t.Errorf("users = %+v, want ordered by email", users)
	}
}
