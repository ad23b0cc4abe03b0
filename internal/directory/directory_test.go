package directory_test

import (
	"context"
	"testing"

	"github.com/nhle/taskboard/internal/directory"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/tests/testutil"
)

func TestRefreshAndEmailFor(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)
	ctx := context.Background()

	for _, u := range []model.User{
		{ID: "u2", Email: "bob@example.com"},
		{ID: "u1", Email: "alice@example.com"},
	} {
		if err := gw.UpsertUser(ctx, u); err != nil {
			t.Fatalf("UpsertUser: %v", err)
		}
	}

	d := directory.New(gw)
	if got := d.EmailFor("u1"); got != "u1" {
		t.Errorf("before refresh EmailFor = %q, want the raw id", got)
	}

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := d.EmailFor("u1"); got != "alice@example.com" {
		t.Errorf("EmailFor(u1) = %q", got)
	}
	if got := d.EmailFor("ghost"); got != "ghost" {
		t.Errorf("EmailFor(ghost) = %q, want the raw id back", got)
	}

	users := d.Users()
	if len(users) != 2 {
		t.Fatalf("Users() len = %d", len(users))
	}
	// Store orders by email.
	if users[0].Email != "alice@example.com" || users[1].Email != "bob@example.com" {
		t.Errorf("unexpected order: %v", users)
	}
}

func TestUsersReturnsCopy(t *testing.T) {
	gw, _ := testutil.NewTestGateway(t)
	ctx := context.Background()

	if err := gw.UpsertUser(ctx, model.User{ID: "u1", Email: "alice@example.com"}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	d := directory.New(gw)
	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got := d.Users()
	got[0].Email = "mutated"
	if d.EmailFor("u1") != "alice@example.com" {
		t.Error("mutating the returned slice leaked into the cache")
	}
}
