package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event Bus Metrics
var (
	// EventsPublishedTotal tracks events published to the bus by event kind
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total events published to the event bus by kind",
		},
		[]string{"kind"},
	)

	// SubscriberPanicsTotal tracks recovered subscriber panics during delivery
	SubscriberPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_subscriber_panics_total",
			Help: "Total recovered panics in event bus subscribers",
		},
	)
)

// Extension Metrics
var (
	// ActiveExtensions tracks the current number of activated extensions
	ActiveExtensions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "extensions_active",
			Help: "Current number of activated extensions",
		},
	)

	// ExtensionLoadFailuresTotal tracks extensions rejected during discovery or init
	ExtensionLoadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extension_load_failures_total",
			Help: "Total extension load failures by stage (manifest/instantiate/initialize)",
		},
		[]string{"stage"},
	)

	// CommandsDispatchedTotal tracks command dispatches by outcome
	CommandsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commands_dispatched_total",
			Help: "Total command dispatches by outcome (handled/unhandled/error)",
		},
		[]string{"outcome"},
	)

	// ProcessorErrorsTotal tracks event-processor failures by extension
	ProcessorErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extension_processor_errors_total",
			Help: "Total event processor failures by extension",
		},
		[]string{"extension"},
	)

	// ExtensionShutdownTimeoutsTotal tracks extensions abandoned at shutdown
	ExtensionShutdownTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "extension_shutdown_timeouts_total",
			Help: "Total extensions that did not shut down within the aggregate timeout",
		},
	)
)

// Connection Manager Metrics
var (
	// ConnectedClients tracks the current number of open overlay connections
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overlay_connected_clients",
			Help: "Current number of connected overlay clients",
		},
	)

	// BroadcastsTotal tracks broadcast fan-outs by message type
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_broadcasts_total",
			Help: "Total broadcasts to overlay clients by message type",
		},
		[]string{"type"},
	)

	// BroadcastSendFailuresTotal tracks per-connection send failures
	BroadcastSendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_send_failures_total",
			Help: "Total per-connection send failures during broadcast",
		},
	)

	// EvictedConnectionsTotal tracks connections removed after send failures
	EvictedConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_evicted_connections_total",
			Help: "Total connections evicted after failed sends",
		},
	)
)

// Chat Sender Metrics
var (
	// ChatSendBreakerStateChanges tracks circuit breaker state transitions
	ChatSendBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_send_breaker_state_changes_total",
			Help: "Chat sender circuit breaker state transitions by new state",
		},
		[]string{"state"},
	)

	// ChatSendFailuresTotal tracks failed outbound chat sends
	ChatSendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_send_failures_total",
			Help: "Total failed outbound chat message sends",
		},
	)
)
