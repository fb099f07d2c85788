// Package extension discovers, validates, instantiates, and runs extension
// modules, and dispatches chat commands and event notifications to them.
package extension

import (
	"context"

	"github.com/google/uuid"

	"github.com/Agash/StreamWeaver-sub002/internal/bus"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
)

// Host is the only handle an extension gets into the application. It exposes
// the event bus and a way to send a chat-style reply through the platform and
// account identified by the triggering event.
type Host interface {
	Bus() *bus.Bus
	SendChatMessage(ctx context.Context, platform, accountID, target, message string) error
}

// Extension is the base capability every loaded extension implements.
type Extension interface {
	ID() uuid.UUID
	Name() string
	Author() string
	Version() string
	Initialize(ctx context.Context, host Host) error
	Shutdown(ctx context.Context) error
}

// CommandContext carries one command invocation to its handler.
type CommandContext struct {
	Command   string
	Arguments string
	Event     domain.Event
	Host      Host
}

// CommandHandler is the optional capability for extensions that own chat
// commands. HandleCommand's boolean result signals whether the original chat
// line should be hidden from overlay clients.
type CommandHandler interface {
	Commands() []string
	HandleCommand(ctx context.Context, cc CommandContext) (bool, error)
}

// EventProcessor is the optional capability for extensions that want to see
// every published event.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, ev domain.Event) error
}

// Configurable is the optional capability for extensions with persisted
// settings. Binding the section to a settings store is an external concern.
type Configurable interface {
	ConfigSection() string
	ConfigOptions() any
}

// PageProvider is the optional capability for extensions shipping a UI page.
// Only the descriptor is tracked here; rendering happens elsewhere.
type PageProvider interface {
	PageName() string
	PageRef() string
}

// State is the lifecycle state of one extension.
type State int

const (
	StateDiscovered State = iota
	StateValidated
	StateInstantiated
	StateActive
	StateShutdownRequested
	StateGone
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateValidated:
		return "validated"
	case StateInstantiated:
		return "instantiated"
	case StateActive:
		return "active"
	case StateShutdownRequested:
		return "shutdown_requested"
	case StateGone:
		return "gone"
	default:
		return "unknown"
	}
}

// Descriptor is the externally visible summary of an activated extension.
type Descriptor struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Author        string    `json:"author"`
	Version       string    `json:"version"`
	Kind          string    `json:"kind"`
	Commands      []string  `json:"commands,omitempty"`
	Page          string    `json:"page,omitempty"`
	ConfigSection string    `json:"configSection,omitempty"`
}
