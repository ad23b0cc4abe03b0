package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/query"
)

func newTestGateway(handler http.HandlerFunc) (*Gateway, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, "test-key", time.Second), srv
}

func TestFetchTasksBuildsPredicateParams(t *testing.T) {
	var gotQuery string
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.Header.Get("apikey") != "test-key" {
			t.Errorf("missing apikey header")
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	})
	defer srv.Close()

	today := model.MustDate("2024-01-02")

	cases := []struct {
		pred query.Predicate
		want string
	}{
		{query.For(query.ModeAssignedToMe, "u1", today), "assigned_to=eq.u1"},
		{query.For(query.ModeCreatedByMe, "u1", today), "user_id=eq.u1"},
		{query.For(query.ModeOverdue, "u1", today), "due_date=lt.2024-01-02"},
		{query.For(query.ModeDueToday, "u1", today), "due_date=eq.2024-01-02"},
	}

	for _, tc := range cases {
		if _, err := gw.FetchTasks(context.Background(), tc.pred); err != nil {
			t.Fatalf("FetchTasks: %v", err)
		}
		decoded, err := url.QueryUnescape(gotQuery)
		if err != nil {
			t.Fatalf("parsing query: %v", err)
		}
		if !strings.Contains(decoded, tc.want) {
			t.Errorf("query %q missing %q", decoded, tc.want)
		}
	}
}

func TestFetchTasksMapsNullColumns(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "task": null, "user_id": "u1", "assigned_to": null,
			 "due_date": null, "is_complete": null, "inserted_at": null},
			{"id": 2, "task": "real", "user_id": "u1", "assigned_to": "u2",
			 "due_date": "2024-05-01", "is_complete": true,
			 "inserted_at": "2024-04-30T12:00:00Z"}
		]`))
	})
	defer srv.Close()

	tasks, err := gw.FetchTasks(context.Background(), query.Predicate{})
	if err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len = %d", len(tasks))
	}

	bare := tasks[0]
	if bare.Task != "" || bare.AssignedTo != nil || bare.DueDate != nil || bare.IsComplete {
		t.Errorf("null columns should normalize to zero values, got %+v", bare)
	}

	full := tasks[1]
	if full.DueDate == nil || *full.DueDate != model.MustDate("2024-05-01") {
		t.Errorf("due date = %v", full.DueDate)
	}
	if full.AssignedTo == nil || *full.AssignedTo != "u2" {
		t.Errorf("assigned_to = %v", full.AssignedTo)
	}
	if !full.IsComplete || full.InsertedAt.IsZero() {
		t.Errorf("task = %+v", full)
	}
}

func TestInsertTaskReturnsConfirmedRecord(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Error("writes must ask for the confirmed representation")
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["task"] != "new task" || body["user_id"] != "u1" {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id": 42, "task": "new task", "user_id": "u1",
			"assigned_to": null, "due_date": null, "is_complete": false,
			"inserted_at": "2024-04-30T12:00:00Z"}]`))
	})
	defer srv.Close()

	confirmed, err := gw.InsertTask(context.Background(), model.TaskDraft{
		Task: "new task", CreatorID: "u1",
	})
	if err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	if confirmed.ID != 42 {
		t.Errorf("id = %d, want the server-assigned 42", confirmed.ID)
	}
}

func TestInsertTaskRejectsBlankText(t *testing.T) {
	gw := New("http://unreachable.invalid", "k", time.Second)

	_, err := gw.InsertTask(context.Background(), model.TaskDraft{Task: "  ", CreatorID: "u1"})
	if !gateway.IsValidationFailed(err) {
		t.Errorf("err = %v, want validation failure without a request", err)
	}
}

func TestUpdateTaskEmptyResultIsNotFound(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	defer srv.Close()

	done := true
	_, err := gw.UpdateTask(context.Background(), 7, gateway.TaskPatch{IsComplete: &done})
	if !gateway.IsNotFound(err) {
		t.Errorf("err = %v, want not-found for a filter matching no rows", err)
	}
}

func TestDeleteTaskEmptyResultIsNotFound(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`[]`))
	})
	defer srv.Close()

	if err := gw.DeleteTask(context.Background(), 5); !gateway.IsNotFound(err) {
		t.Errorf("err = %v, want not-found", err)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		check  func(error) bool
		name   string
	}{
		{http.StatusUnauthorized, `{"message":"bad key"}`, gateway.IsPermissionDenied, "401"},
		{http.StatusForbidden, `{"message":"row policy"}`, gateway.IsPermissionDenied, "403"},
		{http.StatusNotFound, `{"message":"no relation"}`, gateway.IsNotFound, "404"},
		{http.StatusBadRequest, `{"message":"null value in column \"task\""}`, gateway.IsValidationFailed, "400"},
		{http.StatusConflict, `{"message":"duplicate key"}`, gateway.IsValidationFailed, "409"},
		{http.StatusInternalServerError, ``, gateway.IsConnectionFailed, "500"},
	}

	for _, tc := range cases {
		gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		})

		_, err := gw.FetchTasks(context.Background(), query.Predicate{})
		if err == nil || !tc.check(err) {
			t.Errorf("%s: err = %v, wrong classification", tc.name, err)
		}
		srv.Close()
	}
}

func TestTransportFailureIsConnectionError(t *testing.T) {
	gw := New("http://127.0.0.1:1", "k", 200*time.Millisecond)

	_, err := gw.FetchTasks(context.Background(), query.Predicate{})
	if !gateway.IsConnectionFailed(err) {
		t.Errorf("err = %v, want connection failure", err)
	}
}

func TestErrorMessageComesFromStoreBody(t *testing.T) {
	gw, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"missing required field","details":"column task"}`))
	})
	defer srv.Close()

	_, err := gw.FetchTasks(context.Background(), query.Predicate{})
	var ge *gateway.Error
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want a gateway error", err)
	}
	if ge.Message != "missing required field: column task" {
		t.Errorf("message = %q", ge.Message)
	}
}
