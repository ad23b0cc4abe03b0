// Package directory caches the principal listing used to populate
// assignment choices. The listing is a snapshot, not live data.
package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/model"
)

// Directory holds a cached snapshot of the known principals.
type Directory struct {
	gw gateway.Gateway

	mu    sync.Mutex
	users []model.User
}

// New creates an empty directory backed by the gateway.
func New(gw gateway.Gateway) *Directory {
	return &Directory{gw: gw}
}

// Refresh replaces the snapshot with a fresh listing.
func (d *Directory) Refresh(ctx context.Context) error {
	users, err := d.gw.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing principals: %w", err)
	}

	d.mu.Lock()
	d.users = users
	d.mu.Unlock()
	return nil
}

// Users returns a copy of the cached snapshot.
func (d *Directory) Users() []model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.User, len(d.users))
	copy(out, d.users)
	return out
}

// EmailFor resolves a principal id to its email, falling back to the
// raw id when the principal is not in the snapshot.
func (d *Directory) EmailFor(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.ID == id {
			return u.Email
		}
	}
	return id
}
