// Package feed keeps the per-user notification list current: an
// initial fetch becomes the baseline and push-delivered inserts are
// merged in as they arrive. The push channel is at-least-once, so the
// merge deduplicates by id; replaying an event is always a no-op.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/realtime"
)

// Feed is the notification stream merger for a single principal. One
// feed holds one subscription; switching users means Close and a new
// feed.
type Feed struct {
	gw     gateway.Gateway
	source realtime.Subscriber
	userID string

	mu      sync.Mutex
	items   []model.Notification
	seen    map[int64]bool
	lastErr string
	closed  bool

	sub     *realtime.Subscription
	done    chan struct{}
	changed chan struct{}
}

// New creates a feed for userID backed by the gateway for the initial
// fetch and the subscriber for push delivery.
func New(gw gateway.Gateway, source realtime.Subscriber, userID string) *Feed {
	return &Feed{
		gw:      gw,
		source:  source,
		userID:  userID,
		seen:    make(map[int64]bool),
		changed: make(chan struct{}, 1),
	}
}

// Start fetches the baseline notification list and then subscribes to
// the user's topic, consuming events on a goroutine until Close.
func (f *Feed) Start(ctx context.Context) error {
	baseline, err := f.gw.FetchNotifications(ctx, f.userID)
	if err != nil {
		f.mu.Lock()
		f.lastErr = displayText(err)
		f.mu.Unlock()
		return fmt.Errorf("loading notifications for %s: %w", f.userID, err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	// The baseline becomes the collection; anything that was pushed
	// ahead of the load and is not part of the baseline is kept by
	// re-merging it on top.
	pushedAhead := f.items
	f.items = baseline
	f.seen = make(map[int64]bool, len(baseline))
	for _, n := range baseline {
		f.seen[n.ID] = true
	}
	for i := len(pushedAhead) - 1; i >= 0; i-- {
		f.mergeLocked(pushedAhead[i])
	}
	f.lastErr = ""
	f.mu.Unlock()

	sub, err := f.source.Subscribe(realtime.NotificationTopic(f.userID))
	if err != nil {
		return fmt.Errorf("subscribing to notifications for %s: %w", f.userID, err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		sub.Cancel()
		return nil
	}
	f.sub = sub
	f.done = make(chan struct{})
	f.mu.Unlock()

	go f.consume(sub)
	f.signal()
	return nil
}

// consume drains the subscription until it is cancelled.
func (f *Feed) consume(sub *realtime.Subscription) {
	defer close(f.done)
	for ev := range sub.Events() {
		f.Apply(ev)
	}
}

// Apply merges one push event into the collection. Events for other
// users or of unknown types are ignored; duplicate delivery of an id
// already present is a no-op. Safe to call after any externally
// managed reconnection.
func (f *Feed) Apply(ev realtime.Event) {
	if ev.Type != realtime.EventInsert || ev.Record.UserID != f.userID {
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	merged := f.mergeLocked(ev.Record)
	f.mu.Unlock()

	if merged {
		f.signal()
	}
}

// mergeLocked prepends n unless its id is already present. Callers
// must hold the lock.
func (f *Feed) mergeLocked(n model.Notification) bool {
	if f.seen[n.ID] {
		return false
	}
	f.seen[n.ID] = true
	f.items = append([]model.Notification{n}, f.items...)
	return true
}

// Close cancels the subscription and stops the consumer goroutine.
// Events delivered after Close leave the feed untouched.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	sub := f.sub
	done := f.done
	f.mu.Unlock()

	if sub != nil {
		sub.Cancel()
		<-done
	}
}

// Notifications returns a snapshot copy, newest first.
func (f *Feed) Notifications() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, len(f.items))
	copy(out, f.items)
	return out
}

// Unread returns the number of notifications not yet marked read.
func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkRead flips the read flag of the notification with the given id.
// The collection is append-only apart from this flag.
func (f *Feed) MarkRead(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsRead = true
			return
		}
	}
}

// LastError returns the most recent user-visible error text.
func (f *Feed) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Changed yields a signal after every merge; the UI listens on it to
// re-render. Signals are collapsed, never queued.
func (f *Feed) Changed() <-chan struct{} {
	return f.changed
}

// signal notifies listeners without blocking.
func (f *Feed) signal() {
	select {
	case f.changed <- struct{}{}:
	default:
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
