package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// subscriptionBuffer bounds each subscriber's delivery channel.
const subscriptionBuffer = 16

// Broker is an in-process Subscriber used in offline mode and in
// tests: the local store publishes an event after every notification
// insert, and the broker fans it out to every subscription on the
// matching topic. Publish never blocks; a subscriber that stops
// draining loses events, which consumers already tolerate because
// delivery is at-least-once, not exactly-once.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[string]chan Event // topic -> subscription id -> channel
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[string]chan Event),
	}
}

// Subscribe registers a new delivery channel for topic.
func (b *Broker) Subscribe(topic string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan Event, subscriptionBuffer)

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]chan Event)
	}
	b.subs[topic][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if chans, ok := b.subs[topic]; ok {
				delete(chans, id)
				if len(chans) == 0 {
					delete(b.subs, topic)
				}
			}
			close(ch)
		})
	}

	return &Subscription{events: ch, cancel: cancel}, nil
}

// Publish delivers ev to every subscription on topic without blocking.
func (b *Broker) Publish(topic string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
			// Subscriber is not draining; drop rather than block.
		}
	}
}

// SubscriberCount returns the number of live subscriptions on topic.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
