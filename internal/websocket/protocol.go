package websocket

import (
	"encoding/json"

	"github.com/Agash/StreamWeaver-sub002/internal/companion"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
)

// Message types on the client wire protocol.
const (
	MessageTypeInit           = "init"
	MessageTypeSettingsUpdate = "settingsUpdate"
	MessageTypeEvent          = "event"
)

// Envelope is the outer shape of every message sent to overlay clients.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// InitPayload is sent once to every new connection before any broadcast.
type InitPayload struct {
	Settings   domain.Settings        `json:"settings"`
	Companions []companion.Descriptor `json:"companions"`
}

// EncodeInit builds the initial state snapshot message for a new connection.
func EncodeInit(settings domain.Settings, companions []companion.Descriptor) ([]byte, error) {
	if companions == nil {
		companions = []companion.Descriptor{}
	}
	return json.Marshal(Envelope{
		Type:    MessageTypeInit,
		Payload: InitPayload{Settings: settings, Companions: companions},
	})
}
