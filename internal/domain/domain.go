package domain

import (
	"context"
	"errors"
)

// ErrUnknownEventKind is returned when an ingested event carries an
// unrecognized kind tag.
var ErrUnknownEventKind = errors.New("unknown event kind")

// ErrPayloadMismatch is returned when an ingested event does not carry
// exactly the one payload its kind tag demands.
var ErrPayloadMismatch = errors.New("event payload does not match kind")

// ChatSender delivers a chat-style reply through the platform and account
// identified by the triggering event. Real platform connectors live outside
// this subsystem; failures are surfaced to the caller and not retried here.
type ChatSender interface {
	SendChatMessage(ctx context.Context, platform, accountID, target, message string) error
}

// Settings is the overlay-relevant configuration snapshot pushed to
// connected clients on connect and on change.
type Settings struct {
	Theme    string `json:"theme"`
	ShowChat bool   `json:"showChat"`
	FontSize int    `json:"fontSize"`
}
