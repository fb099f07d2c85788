package extension

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Agash/StreamWeaver-sub002/internal/domain"
)

// EchoTypeName is the factory key for the built-in echo extension.
const EchoTypeName = "StreamWeaver.Extensions.Echo"

var echoExtensionID = uuid.MustParse("7f1c6e09-2b94-4f6a-9d1f-3a8b54c0e1d2")

// EchoExtension is a minimal native extension: "!echo <text>" replies with
// the text through the host's chat sender and suppresses the original line.
type EchoExtension struct {
	host Host
}

func NewEchoExtension() Extension {
	return &EchoExtension{}
}

func (e *EchoExtension) ID() uuid.UUID   { return echoExtensionID }
func (e *EchoExtension) Name() string    { return "Echo" }
func (e *EchoExtension) Author() string  { return "StreamWeaver" }
func (e *EchoExtension) Version() string { return "1.0.0" }

func (e *EchoExtension) Initialize(ctx context.Context, host Host) error {
	e.host = host
	return nil
}

func (e *EchoExtension) Shutdown(ctx context.Context) error {
	return nil
}

func (e *EchoExtension) Commands() []string {
	return []string{"echo"}
}

func (e *EchoExtension) HandleCommand(ctx context.Context, cc CommandContext) (bool, error) {
	if cc.Arguments == "" {
		return false, nil
	}
	ev := cc.Event
	if err := cc.Host.SendChatMessage(ctx, ev.Platform, ev.AccountID, chatTarget(ev), cc.Arguments); err != nil {
		slog.Warn("Echo reply failed", "error", err)
		return false, err
	}
	return true, nil
}

func chatTarget(ev domain.Event) string {
	if ev.Chat != nil {
		return ev.Chat.Username
	}
	return ""
}

// RegisterBuiltins registers the native extensions compiled into the binary.
func RegisterBuiltins(l *Loader) error {
	return l.RegisterFactory(EchoTypeName, NewEchoExtension)
}
