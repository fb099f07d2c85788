// Package websocket manages live overlay client connections: accept,
// tracking, teardown, and broadcast fan-out with per-connection failure
// isolation.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Agash/StreamWeaver-sub002/internal/domain"
	"github.com/Agash/StreamWeaver-sub002/internal/logging"
	"github.com/Agash/StreamWeaver-sub002/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerResult struct {
	id  uuid.UUID
	err error
}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	initPayload  []byte
	replyChannel chan registerResult
}

type unregisterCmd struct {
	baseHubCmd
	id uuid.UUID
}

type broadcastCmd struct {
	baseHubCmd
	messageType string
	data        []byte
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the connection registry actor. All map mutation happens on the run
// goroutine; accept and cleanup paths talk to it over the command channel, so
// many concurrent callers need no external locking.
type Hub struct {
	cmdCh      chan hubCmd
	clock      clockwork.Clock
	clients    map[uuid.UUID]*clientWriter
	maxClients int
	done       chan struct{}
}

func NewHub(clock clockwork.Clock, maxClients int) *Hub {
	h := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		clock:      clock,
		clients:    make(map[uuid.UUID]*clientWriter),
		maxClients: maxClients,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.removeClient(c.id)
		case broadcastCmd:
			h.handleBroadcast(c)
		case clientCountCmd:
			c.replyChannel <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

// Register adds a connection, assigns it a unique id, and sends the initial
// state snapshot before the caller enters its receive loop.
func (h *Hub) Register(conn *websocket.Conn, initPayload []byte) (uuid.UUID, error) {
	replyCh := make(chan registerResult, 1)
	h.cmdCh <- registerCmd{connection: conn, initPayload: initPayload, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case res := <-replyCh:
		return res.id, res.err
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection and releases its transport. Idempotent.
func (h *Hub) Unregister(id uuid.UUID) {
	h.cmdCh <- unregisterCmd{id: id}
}

// BroadcastEvent fans an event out to all open connections. Events hidden by
// a command handler are not rendered by clients and are skipped here.
func (h *Hub) BroadcastEvent(ev domain.Event) {
	if ev.Hidden {
		return
	}
	data, err := json.Marshal(Envelope{Type: MessageTypeEvent, Payload: ev})
	if err != nil {
		slog.Error("Failed to marshal event broadcast", "event_kind", string(ev.Kind), "error", err)
		return
	}
	h.cmdCh <- broadcastCmd{messageType: MessageTypeEvent, data: data}
}

// BroadcastSettings pushes a settings-change notification to all clients.
func (h *Hub) BroadcastSettings(settings domain.Settings) {
	data, err := json.Marshal(Envelope{Type: MessageTypeSettingsUpdate, Payload: settings})
	if err != nil {
		slog.Error("Failed to marshal settings broadcast", "error", err)
		return
	}
	h.cmdCh <- broadcastCmd{messageType: MessageTypeSettingsUpdate, data: data}
}

// ClientCount returns the number of open connections, or -1 on timeout.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop closes all client connections with a shutdown reason and stops the
// actor. Blocks until the hub goroutine exits or the stop timeout passes.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Connection hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Connection hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting client: max clients reached", "max_clients", h.maxClients)
		_ = c.connection.Close()
		c.replyChannel <- registerResult{err: fmt.Errorf("max clients (%d) reached", h.maxClients)}
		return
	}

	id := uuid.New()
	if _, exists := h.clients[id]; exists {
		logging.WithConnection(id.String()).Error("Duplicate connection id, aborting connection")
		_ = c.connection.Close()
		c.replyChannel <- registerResult{err: fmt.Errorf("duplicate connection id %s", id)}
		return
	}

	cw := newClientWriter(c.connection, h.clock)
	if len(c.initPayload) > 0 {
		if err := cw.send(c.initPayload); err != nil {
			logging.WithConnection(id.String()).Warn("Failed to send init snapshot, aborting connection", "error", err)
			cw.stop()
			c.replyChannel <- registerResult{err: fmt.Errorf("failed to send init snapshot: %w", err)}
			return
		}
	}

	h.clients[id] = cw
	metrics.ConnectedClients.Set(float64(len(h.clients)))
	logging.WithConnection(id.String()).Debug("Client registered", "total_clients", len(h.clients))
	c.replyChannel <- registerResult{id: id}
}

// removeClient is the single cleanup path: stops the writer, releases the
// transport, and drops the registry entry. Safe against double removal.
func (h *Hub) removeClient(id uuid.UUID) {
	cw, exists := h.clients[id]
	if !exists {
		return
	}
	cw.stop()
	delete(h.clients, id)
	metrics.ConnectedClients.Set(float64(len(h.clients)))
	logging.WithConnection(id.String()).Debug("Client unregistered", "remaining_clients", len(h.clients))
}

// handleBroadcast snapshots the registry and attempts a concurrent send to
// every open connection, joining all sends before removing failed entries
// exactly once.
func (h *Hub) handleBroadcast(c broadcastCmd) {
	metrics.BroadcastsTotal.WithLabelValues(c.messageType).Inc()

	type target struct {
		id uuid.UUID
		cw *clientWriter
	}
	targets := make([]target, 0, len(h.clients))
	failed := make(map[uuid.UUID]bool)

	for id, cw := range h.clients {
		if cw.closed() {
			// Transport already gone; remove without attempting a send.
			failed[id] = true
			continue
		}
		targets = append(targets, target{id: id, cw: cw})
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, tg := range targets {
		wg.Add(1)
		go func(tg target) {
			defer wg.Done()
			if err := tg.cw.send(c.data); err != nil {
				metrics.BroadcastSendFailuresTotal.Inc()
				logging.WithConnection(tg.id.String()).Warn("Broadcast send failed", "error", err)
				mu.Lock()
				failed[tg.id] = true
				mu.Unlock()
			}
		}(tg)
	}
	wg.Wait()

	for id := range failed {
		metrics.EvictedConnectionsTotal.Inc()
		h.removeClient(id)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Connection hub shutting down", "clients", len(h.clients))
	for id, cw := range h.clients {
		cw.stopGraceful("Server shutting down")
		delete(h.clients, id)
	}
	metrics.ConnectedClients.Set(0)
}
