// Package events publishes domain events for other services to consume.
package events

import (
	"context"
	"sync"
	"time"
)

const (
	TopicUsers           = "user_events"
	TopicCatalog         = "catalog_events"
	TopicOrders          = "order_events"
	TopicPublisherOrders = "publisher_order_events"
)

var Topics = []string{TopicUsers, TopicCatalog, TopicOrders, TopicPublisherOrders}

const (
	UserRegistered          = "user_registered"
	BookCreated             = "book_created"
	BookUpdated             = "book_updated"
	BookDeleted             = "book_deleted"
	OrderPlaced             = "order_placed"
	PublisherOrderCreated   = "publisher_order_created"
	PublisherOrderConfirmed = "publisher_order_confirmed"
	PublisherOrderCancelled = "publisher_order_cancelled"
)

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func New(typ string, payload any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, ev Event) error
	Close() error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, Event) error { return nil }
func (Nop) Close() error                                        { return nil }

type Message struct {
	Topic string
	Key   string
	Event Event
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Publish(_ context.Context, topic, key string, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Topic: topic, Key: key, Event: ev})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Types lists the event types published to topic, oldest first.
func (r *Recorder) Types(topic string) []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Topic == topic {
			out = append(out, m.Event.Type)
		}
	}
	return out
}
