// Package bus provides the in-process typed publish/subscribe primitive that
// every other component hangs off.
package bus

import (
	"log/slog"
	"sync"

	"github.com/Agash/StreamWeaver-sub002/internal/domain"
	"github.com/Agash/StreamWeaver-sub002/internal/metrics"
)

// Handler receives events synchronously during Publish.
type Handler func(domain.Event)

// Subscription identifies a registered handler for later removal.
type Subscription int64

type entry struct {
	id Subscription
	// kind is nil for wildcard subscribers.
	kind *domain.Kind
	fn   Handler
}

// Bus delivers each published event synchronously, in registration order, to
// every subscriber registered for the event's kind or for all kinds. A
// subscriber that panics does not prevent delivery to the remaining
// subscribers. No ordering is guaranteed between publish calls racing from
// different producers.
type Bus struct {
	mu      sync.Mutex
	nextID  Subscription
	entries []entry
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for a single event kind and returns its
// subscription token.
func (b *Bus) Subscribe(kind domain.Kind, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.entries = append(b.entries, entry{id: b.nextID, kind: &kind, fn: fn})
	return b.nextID
}

// SubscribeAll registers a wildcard handler that receives every event.
func (b *Bus) SubscribeAll(fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.entries = append(b.entries, entry{id: b.nextID, fn: fn})
	return b.nextID
}

// Unsubscribe removes the handler registered under id. Unknown ids are a
// no-op.
func (b *Bus) Unsubscribe(id Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to all matching subscribers in registration order.
// Delivery happens outside the lock so handlers may publish further events
// (re-entrant publish) or subscribe without deadlocking.
func (b *Bus) Publish(ev domain.Event) {
	b.mu.Lock()
	matched := make([]entry, 0, len(b.entries))
	for _, e := range b.entries {
		if e.kind == nil || *e.kind == ev.Kind {
			matched = append(matched, e)
		}
	}
	b.mu.Unlock()

	metrics.EventsPublishedTotal.WithLabelValues(string(ev.Kind)).Inc()

	for _, e := range matched {
		deliver(e, ev)
	}
}

func deliver(e entry, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SubscriberPanicsTotal.Inc()
			slog.Error("Event bus subscriber panicked",
				"subscription", int64(e.id),
				"event_kind", string(ev.Kind),
				"event_id", ev.ID.String(),
				"panic", r,
			)
		}
	}()
	e.fn(ev)
}
