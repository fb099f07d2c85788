package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agash/StreamWeaver-sub002/internal/bus"
	"github.com/Agash/StreamWeaver-sub002/internal/chat"
	"github.com/Agash/StreamWeaver-sub002/internal/config"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
	"github.com/Agash/StreamWeaver-sub002/internal/extension"
	"github.com/Agash/StreamWeaver-sub002/internal/goal"
	"github.com/Agash/StreamWeaver-sub002/internal/hub"
	"github.com/Agash/StreamWeaver-sub002/internal/websocket"
)

func newTestServer(t *testing.T) (*Server, *bus.Bus) {
	t.Helper()

	cfg := &config.Config{
		Port:             "0",
		CommandPrefix:    "!",
		MaxClients:       10,
		APIRatePerSecond: 1000,
		APIBurst:         1000,
	}

	b := bus.New()
	loader := extension.NewLoader()
	require.NoError(t, extension.RegisterBuiltins(loader))
	host := extension.NewHost(b, chat.NewLoopbackSender(b))
	registry := extension.NewRegistry(loader, host, clockwork.NewRealClock(), '!', time.Second)
	require.NoError(t, registry.LoadFrom(context.Background(), t.TempDir()))
	t.Cleanup(func() { registry.Shutdown(context.Background()) })

	wsHub := websocket.NewHub(clockwork.NewRealClock(), cfg.MaxClients)
	t.Cleanup(wsHub.Stop)

	eventHub := hub.New(b, registry)
	settings := NewSettingsStore(domain.Settings{Theme: "dark", ShowChat: true, FontSize: 16})
	tracker := goal.New(b, "subs", 50)

	return NewServer(cfg, eventHub, wsHub, registry, settings, nil, tracker), b
}

func TestHandleIngestEvent_Accepted(t *testing.T) {
	srv, b := newTestServer(t)

	var got []domain.Event
	b.Subscribe(domain.KindDonation, func(ev domain.Event) { got = append(got, ev) })

	body := `{
		"kind": "donation",
		"platform": "streamlabs",
		"donation": {"username": "fan", "amount": 5, "currency": "EUR"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "fan", got[0].Donation.Username)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestHandleIngestEvent_UnknownKindRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"kind": "teleport", "platform": "x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleIngestEvent_PayloadKindMismatchRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	// Kind says donation but the body carries a chat payload.
	body := `{
		"kind": "donation",
		"platform": "streamlabs",
		"chat": {"username": "fan", "text": "hi"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReadiness_IncludesGoalProgress(t *testing.T) {
	srv, b := newTestServer(t)

	b.Publish(domain.NewSubscription("twitch", "", domain.SubscriptionPayload{Username: "fan"}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Goal domain.GoalPayload `json:"goal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "subs", payload.Goal.Name)
	assert.Equal(t, 1, payload.Goal.Current)
	assert.Equal(t, 50, payload.Goal.Target)
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"theme": "light", "showChat": false, "fontSize": 20}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var settings domain.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "light", settings.Theme)
	assert.False(t, settings.ShowChat)
}

func TestHandleListExtensions(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/extensions", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var descriptors []extension.Descriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &descriptors))
	// No extension dirs on disk in this test; built-ins still need a
	// manifest to activate.
	assert.Empty(t, descriptors)
}

func TestHandleLiveness(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebSocketEndpoint_SendsInit(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Echo())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/overlay"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env websocket.Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, websocket.MessageTypeInit, env.Type)
}
