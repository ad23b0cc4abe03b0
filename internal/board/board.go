// Package board owns the client-side view of the shared task
// collection. Mutations go to the gateway first; the confirmed server
// record is what lands in local state, so a failed request never
// leaves a half-applied optimistic change behind.
package board

import (
	"context"
	"errors"
	"sync"

	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/query"
)

// Board is the task reconciliation store. Requests are issued without
// holding the lock, so responses can arrive out of order; whichever
// confirmed response for a given id is applied last wins. A closed
// board ignores any response that resolves after Close.
type Board struct {
	gw gateway.Gateway

	mu      sync.Mutex
	tasks   []model.Task
	lastErr string
	closed  bool
}

// New creates a board backed by the given gateway. The board starts
// empty; call Load to populate it.
func New(gw gateway.Gateway) *Board {
	return &Board{gw: gw}
}

// Close disposes the board. Outstanding requests that resolve after
// Close leave the board untouched.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Load replaces the entire collection with the fetch result for pred.
// The previous collection is discarded without diffing, so a load
// always wins over any outstanding optimistic mutation; callers that
// need optimistic continuity must not load while a mutation is in
// flight.
func (b *Board) Load(ctx context.Context, pred query.Predicate) error {
	tasks, err := b.gw.FetchTasks(ctx, pred)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	if err != nil {
		b.lastErr = displayText(err)
		return err
	}

	b.tasks = tasks
	b.lastErr = ""
	return nil
}

// Add sends an insert and, on success, appends the confirmed record to
// the tail. Collection order is append order: ids arrive from the
// server, so the tail is not necessarily the highest id. On failure no
// local mutation happens and the error is returned for display.
func (b *Board) Add(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	confirmed, err := b.gw.InsertTask(ctx, draft)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return model.Task{}, nil
	}
	if err != nil {
		b.lastErr = displayText(err)
		return model.Task{}, err
	}

	// A load may have raced the insert and already brought the
	// confirmed row in; never hold two copies of one id.
	if b.indexOf(confirmed.ID) < 0 {
		b.tasks = append(b.tasks, confirmed)
	}
	b.lastErr = ""
	return confirmed, nil
}

// ToggleComplete flips the completion flag of the task with the given
// id. The confirmed record from the server replaces the local row; for
// concurrent toggles on the same id the last response to arrive wins.
// An id unknown to the board yields a not-found outcome without a
// request. A not-found answer from the store means the task is gone
// remotely; the local row is dropped and no error is surfaced.
func (b *Board) ToggleComplete(ctx context.Context, id int64) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	idx := b.indexOf(id)
	if idx < 0 {
		b.mu.Unlock()
		return gateway.NewError(gateway.KindNotFound, "task %d is not in the current view", id)
	}
	desired := !b.tasks[idx].IsComplete
	b.mu.Unlock()

	confirmed, err := b.gw.UpdateTask(ctx, id, gateway.TaskPatch{IsComplete: &desired})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	if err != nil {
		if gateway.IsNotFound(err) {
			b.drop(id)
			return nil
		}
		b.lastErr = displayText(err)
		return err
	}

	// A load may have replaced the collection while the request was in
	// flight; the load result wins, so a row that vanished stays gone.
	if idx := b.indexOf(id); idx >= 0 {
		b.tasks[idx] = confirmed
	}
	b.lastErr = ""
	return nil
}

// Remove deletes the task with the given id. The local row goes away
// only once the store confirms; a not-found answer counts as already
// deleted. On failure local state is unchanged and the error text is
// surfaced.
func (b *Board) Remove(ctx context.Context, id int64) error {
	err := b.gw.DeleteTask(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	if err != nil && !gateway.IsNotFound(err) {
		b.lastErr = displayText(err)
		return err
	}

	b.drop(id)
	b.lastErr = ""
	return nil
}

// Tasks returns a snapshot copy of the collection in iteration order.
func (b *Board) Tasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Len returns the number of tasks currently held.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tasks)
}

// LastError returns the most recent user-visible error text, or an
// empty string after a successful operation. Last error wins when
// several occur.
func (b *Board) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// indexOf returns the position of id in the collection, or -1.
// Callers must hold the lock.
func (b *Board) indexOf(id int64) int {
	for i, t := range b.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// drop removes id from the collection if present. Callers must hold
// the lock.
func (b *Board) drop(id int64) {
	if idx := b.indexOf(id); idx >= 0 {
		b.tasks = append(b.tasks[:idx], b.tasks[idx+1:]...)
	}
}

// displayText reduces an error to the single human-readable message
// shown to the user.
func displayText(err error) string {
	var ge *gateway.Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	return err.Error()
}
