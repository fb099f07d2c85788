// Package chat provides the outbound chat-send collaborator boundary. Real
// platform connectors are external; the loopback sender turns replies into
// bot-message events on the shared bus so overlay clients render them.
package chat

import (
	"context"
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/Agash/StreamWeaver-sub002/internal/bus"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
	"github.com/Agash/StreamWeaver-sub002/internal/logging"
	"github.com/Agash/StreamWeaver-sub002/internal/metrics"
)

// LoopbackSender publishes outbound chat replies back onto the event bus as
// bot messages.
type LoopbackSender struct {
	bus *bus.Bus
}

func NewLoopbackSender(b *bus.Bus) *LoopbackSender {
	return &LoopbackSender{bus: b}
}

func (s *LoopbackSender) SendChatMessage(_ context.Context, platform, accountID, target, message string) error {
	s.bus.Publish(domain.NewBotMessage(platform, accountID, domain.BotPayload{
		Target: target,
		Text:   message,
	}))
	return nil
}

// BreakerSender wraps a ChatSender with a circuit breaker so a dead platform
// connector fails fast instead of stalling command handlers.
type BreakerSender struct {
	inner   domain.ChatSender
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerSender(inner domain.ChatSender) *BreakerSender {
	settings := gobreaker.Settings{
		Name: "chat-sender",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Chat sender circuit breaker state changed",
				"component", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.ChatSendBreakerStateChanges.WithLabelValues(to.String()).Inc()
		},
	}
	return &BreakerSender{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (s *BreakerSender) SendChatMessage(ctx context.Context, platform, accountID, target, message string) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.inner.SendChatMessage(ctx, platform, accountID, target, message)
	})
	if err != nil {
		metrics.ChatSendFailuresTotal.Inc()
		logging.WithError(err).Debug("Chat send failed", "platform", platform, "target", target)
	}
	return err
}
