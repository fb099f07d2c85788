package extension

import (
	"context"

	"github.com/Agash/StreamWeaver-sub002/internal/bus"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
)

// hostHandle is the Host implementation handed to extensions. Chat replies
// are delegated to the external sending collaborator; failures surface to the
// caller and are not retried here.
type hostHandle struct {
	eventBus *bus.Bus
	sender   domain.ChatSender
}

// NewHost builds the host handle extensions receive during Initialize.
func NewHost(eventBus *bus.Bus, sender domain.ChatSender) Host {
	return &hostHandle{eventBus: eventBus, sender: sender}
}

func (h *hostHandle) Bus() *bus.Bus {
	return h.eventBus
}

func (h *hostHandle) SendChatMessage(ctx context.Context, platform, accountID, target, message string) error {
	return h.sender.SendChatMessage(ctx, platform, accountID, target, message)
}
