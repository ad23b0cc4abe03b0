// Package realtime models the push-delivery boundary: a subscription
// to a topic yields a stream of discrete change events. Delivery is
// at-least-once and ordering is only guaranteed within a topic, so
// consumers must merge idempotently.
package realtime

import (
	"fmt"

	"github.com/nhle/taskboard/internal/model"
)

// EventType identifies the kind of remote change an event describes.
type EventType string

// EventInsert is the only change type currently delivered: a new
// notification row was created server-side.
const EventInsert EventType = "INSERT"

// Event is one push-delivered change to a notification row.
type Event struct {
	Type   EventType
	Record model.Notification
}

// NotificationTopic returns the per-user topic that carries
// notification inserts for the given principal.
func NotificationTopic(userID string) string {
	return fmt.Sprintf("notifications-for-user:%s", userID)
}

// Subscription is a live delivery channel for one topic. Events()
// yields events until Cancel is called; Cancel releases the channel
// and is safe to call more than once.
type Subscription struct {
	events chan Event
	cancel func()
}

// Events returns the receive-only event stream.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Cancel tears the subscription down and closes the event stream.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Subscriber hands out subscriptions to named topics.
type Subscriber interface {
	Subscribe(topic string) (*Subscription, error)
}
