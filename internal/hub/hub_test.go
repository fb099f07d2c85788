package hub

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agash/StreamWeaver-sub002/internal/bus"
	"github.com/Agash/StreamWeaver-sub002/internal/chat"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
	"github.com/Agash/StreamWeaver-sub002/internal/extension"
)

// newTestHub builds a hub with the built-in echo extension activated.
func newTestHub(t *testing.T) (*Hub, *bus.Bus) {
	t.Helper()

	b := bus.New()
	loader := extension.NewLoader()
	require.NoError(t, extension.RegisterBuiltins(loader))

	root := t.TempDir()
	dir := filepath.Join(root, "echo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := fmt.Sprintf(`{
		"id": "7f1c6e09-2b94-4f6a-9d1f-3a8b54c0e1d2",
		"name": "Echo", "author": "StreamWeaver", "version": "1.0.0",
		"kind": "native-code", "entryPoint": {"typeName": %q}
	}`, extension.EchoTypeName)
	require.NoError(t, os.WriteFile(filepath.Join(dir, extension.ManifestFileName), []byte(manifest), 0o644))

	host := extension.NewHost(b, chat.NewLoopbackSender(b))
	registry := extension.NewRegistry(loader, host, clockwork.NewRealClock(), '!', time.Second)
	require.NoError(t, registry.LoadFrom(context.Background(), root))
	t.Cleanup(func() { registry.Shutdown(context.Background()) })

	return New(b, registry), b
}

func TestHub_PlainChatPublishedVisible(t *testing.T) {
	h, b := newTestHub(t)

	var got []domain.Event
	b.Subscribe(domain.KindChatMessage, func(ev domain.Event) { got = append(got, ev) })

	h.Submit(context.Background(), domain.NewChatMessage("twitch", "a", domain.ChatPayload{Username: "u", Text: "hello"}))

	require.Len(t, got, 1)
	assert.False(t, got[0].Hidden)
}

func TestHub_HandledCommandPublishedHidden(t *testing.T) {
	h, b := newTestHub(t)

	var chats []domain.Event
	var bots []domain.Event
	b.Subscribe(domain.KindChatMessage, func(ev domain.Event) { chats = append(chats, ev) })
	b.Subscribe(domain.KindBotMessage, func(ev domain.Event) { bots = append(bots, ev) })

	h.Submit(context.Background(), domain.NewChatMessage("twitch", "a", domain.ChatPayload{Username: "u", Text: "!echo hi"}))

	// The original chat line is still published for in-process
	// subscribers, just hidden from overlay rendering.
	require.Len(t, chats, 1)
	assert.True(t, chats[0].Hidden)

	// The echo reply went out through the loopback sender.
	require.Len(t, bots, 1)
	assert.Equal(t, "hi", bots[0].Bot.Text)
}

func TestHub_UnknownCommandPublishedVisible(t *testing.T) {
	h, b := newTestHub(t)

	var got []domain.Event
	b.Subscribe(domain.KindChatMessage, func(ev domain.Event) { got = append(got, ev) })

	h.Submit(context.Background(), domain.NewChatMessage("twitch", "a", domain.ChatPayload{Username: "u", Text: "!nosuch"}))

	require.Len(t, got, 1)
	assert.False(t, got[0].Hidden)
}

func TestHub_NonChatEventsPassThrough(t *testing.T) {
	h, b := newTestHub(t)

	var got []domain.Event
	b.SubscribeAll(func(ev domain.Event) { got = append(got, ev) })

	h.Submit(context.Background(), domain.NewDonation("streamlabs", "", domain.DonationPayload{Username: "fan", Amount: 10, Currency: "USD"}))

	require.Len(t, got, 1)
	assert.Equal(t, domain.KindDonation, got[0].Kind)
}

func TestHub_EventIDsUnique(t *testing.T) {
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 100; i++ {
		ev := domain.NewChatMessage("twitch", "", domain.ChatPayload{Username: "u", Text: "x"})
		assert.False(t, seen[ev.ID])
		seen[ev.ID] = true
	}
}
