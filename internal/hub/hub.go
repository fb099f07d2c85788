// Package hub orchestrates the event pipeline: producer events come in,
// command candidates are dispatched to extensions, and everything is
// published to the event bus for in-process subscribers and overlay clients.
package hub

import (
	"context"
	"log/slog"

	"github.com/Agash/StreamWeaver-sub002/internal/bus"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
	"github.com/Agash/StreamWeaver-sub002/internal/extension"
)

// Hub receives raw events from producers and routes them. Command dispatch
// and publish are sequential per event: the handler finishes before the
// event reaches the bus.
type Hub struct {
	bus      *bus.Bus
	registry *extension.Registry
}

func New(b *bus.Bus, registry *extension.Registry) *Hub {
	return &Hub{bus: b, registry: registry}
}

// Submit classifies and routes one producer event. Chat messages matching
// the command rule are dispatched first; a handler that suppresses the line
// hides it from overlay clients but not from in-process subscribers.
func (h *Hub) Submit(ctx context.Context, ev domain.Event) {
	if ev.Kind == domain.KindChatMessage && h.registry != nil {
		handled, suppress := h.registry.Dispatch(ctx, ev)
		if handled {
			slog.Debug("Command dispatched",
				"event_id", ev.ID.String(),
				"suppressed", suppress,
			)
		}
		if suppress {
			ev = ev.WithHidden()
		}
	}

	h.bus.Publish(ev)
}

// Bus returns the underlying event bus.
func (h *Hub) Bus() *bus.Bus {
	return h.bus
}
