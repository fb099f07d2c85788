package extension

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Agash/StreamWeaver-sub002/internal/domain"
	"github.com/Agash/StreamWeaver-sub002/internal/logging"
	"github.com/Agash/StreamWeaver-sub002/internal/metrics"
)

// Registry owns the active extension set, the command lookup table, and the
// extension lifecycle. The set is built once during startup and read-mostly
// afterwards; the only later writer is Shutdown, which waits out in-flight
// dispatches before clearing.
type Registry struct {
	loader          *Loader
	host            Host
	clock           clockwork.Clock
	prefix          byte
	shutdownTimeout time.Duration

	// mu guards the maps and slices below. closing is flipped by Shutdown
	// under mu; dispatch and notification refuse to start once it is set.
	// inflight counts handler/processor calls already past that gate, and
	// Shutdown waits for it to drain before tearing extensions down.
	mu         sync.RWMutex
	closing    bool
	inflight   sync.WaitGroup
	active     []Extension
	manifests  map[uuid.UUID]*Manifest
	states     map[uuid.UUID]State
	commands   map[string]Extension
	processors []EventProcessor
}

func NewRegistry(loader *Loader, host Host, clock clockwork.Clock, prefix byte, shutdownTimeout time.Duration) *Registry {
	return &Registry{
		loader:          loader,
		host:            host,
		clock:           clock,
		prefix:          prefix,
		shutdownTimeout: shutdownTimeout,
		manifests:       make(map[uuid.UUID]*Manifest),
		states:          make(map[uuid.UUID]State),
		commands:        make(map[string]Extension),
	}
}

// LoadFrom discovers, instantiates, and initializes every valid extension
// under root, then builds the command table. Each failure drops that one
// candidate with a logged reason; the rest proceed.
func (r *Registry) LoadFrom(ctx context.Context, root string) error {
	candidates, err := DiscoverManifests(root)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uuid.UUID]bool)
	for _, c := range candidates {
		m := c.Manifest
		id := m.UUID()
		if seen[id] {
			slog.Warn("Skipping extension with duplicate id", "extension_id", m.ID, "name", m.Name)
			continue
		}
		seen[id] = true
		r.states[id] = StateValidated

		log := logging.WithExtension(m.ID)

		ext, err := r.loader.Instantiate(c)
		if err != nil {
			metrics.ExtensionLoadFailuresTotal.WithLabelValues("instantiate").Inc()
			log.Warn("Failed to instantiate extension", "name", m.Name, "error", err)
			r.states[id] = StateGone
			continue
		}
		r.states[id] = StateInstantiated

		if err := initialize(ctx, ext, r.host); err != nil {
			metrics.ExtensionLoadFailuresTotal.WithLabelValues("initialize").Inc()
			log.Warn("Extension initialize failed, dropping", "name", m.Name, "error", err)
			r.states[id] = StateGone
			continue
		}

		checkMetadata(m, ext)

		r.active = append(r.active, ext)
		r.manifests[id] = m
		r.states[id] = StateActive
		if p, ok := ext.(EventProcessor); ok {
			r.processors = append(r.processors, p)
		}
		log.Info("Extension activated",
			"name", ext.Name(),
			"version", ext.Version(),
			"kind", m.Kind,
		)
	}

	r.buildCommandTable()
	metrics.ActiveExtensions.Set(float64(len(r.active)))
	return nil
}

// initialize calls ext.Initialize with panic isolation.
func initialize(ctx context.Context, ext Extension, host Host) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("initialize panicked: %v", r)
		}
	}()
	return ext.Initialize(ctx, host)
}

// checkMetadata compares manifest metadata against the live instance.
// Mismatches warn only; they do not block activation.
func checkMetadata(m *Manifest, ext Extension) {
	if ext.ID() != m.UUID() {
		slog.Warn("Extension id mismatch", "manifest_id", m.ID, "instance_id", ext.ID().String())
	}
	if ext.Name() != m.Name {
		slog.Warn("Extension name mismatch", "manifest_name", m.Name, "instance_name", ext.Name())
	}
	if ext.Author() != m.Author {
		slog.Warn("Extension author mismatch", "manifest_author", m.Author, "instance_author", ext.Author())
	}
	if ext.Version() != m.Version {
		slog.Warn("Extension version mismatch", "manifest_version", m.Version, "instance_version", ext.Version())
	}
}

// buildCommandTable binds each declared command token, lower-cased, to its
// extension in activation order. First registrant wins; conflicts are logged
// and ignored. Caller holds mu.
func (r *Registry) buildCommandTable() {
	for _, ext := range r.active {
		handler, ok := ext.(CommandHandler)
		if !ok {
			continue
		}
		for _, cmd := range handler.Commands() {
			token := strings.ToLower(strings.TrimSpace(cmd))
			if token == "" {
				continue
			}
			if owner, bound := r.commands[token]; bound {
				slog.Warn("Command already bound, keeping first registrant",
					"command", token,
					"owner", owner.Name(),
					"rejected", ext.Name(),
				)
				continue
			}
			r.commands[token] = ext
		}
	}
}

// Commands returns the bound command tokens.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens := make([]string, 0, len(r.commands))
	for token := range r.commands {
		tokens = append(tokens, token)
	}
	return tokens
}

// Dispatch tests ev against the command-detection rule and, on a registry
// hit, invokes the bound extension's handler. handled reports whether a bound
// handler ran; suppress reports whether the original chat line should be
// hidden from overlay clients. Handler errors and panics are logged and
// treated as not handled.
func (r *Registry) Dispatch(ctx context.Context, ev domain.Event) (handled, suppress bool) {
	if ev.Kind != domain.KindChatMessage || ev.Chat == nil {
		return false, false
	}

	token, args, ok := ParseCommand(ev.Chat.Text, r.prefix)
	if !ok {
		return false, false
	}

	r.mu.RLock()
	if r.closing {
		r.mu.RUnlock()
		return false, false
	}
	ext, bound := r.commands[strings.ToLower(token)]
	if bound {
		r.inflight.Add(1)
	}
	r.mu.RUnlock()
	if !bound {
		metrics.CommandsDispatchedTotal.WithLabelValues("unhandled").Inc()
		slog.Debug("Not a recognized command", "command", token)
		return false, false
	}
	defer r.inflight.Done()

	cc := CommandContext{
		Command:   strings.ToLower(token),
		Arguments: args,
		Event:     ev,
		Host:      r.host,
	}

	suppress, err := handleCommand(ctx, ext.(CommandHandler), cc)
	if err != nil {
		metrics.CommandsDispatchedTotal.WithLabelValues("error").Inc()
		slog.Error("Command handler failed",
			"command", cc.Command,
			"extension", ext.Name(),
			"error", err,
		)
		return false, false
	}

	metrics.CommandsDispatchedTotal.WithLabelValues("handled").Inc()
	return true, suppress
}

func handleCommand(ctx context.Context, h CommandHandler, cc CommandContext) (suppress bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			suppress = false
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.HandleCommand(ctx, cc)
}

// NotifyProcessors delivers ev to every activated event-processor extension
// with per-extension failure isolation.
func (r *Registry) NotifyProcessors(ctx context.Context, ev domain.Event) {
	r.mu.RLock()
	if r.closing {
		r.mu.RUnlock()
		return
	}
	processors := make([]EventProcessor, len(r.processors))
	copy(processors, r.processors)
	r.inflight.Add(1)
	r.mu.RUnlock()
	defer r.inflight.Done()

	for _, p := range processors {
		notifyProcessor(ctx, p, ev)
	}
}

func notifyProcessor(ctx context.Context, p EventProcessor, ev domain.Event) {
	name := "unknown"
	if ext, ok := p.(Extension); ok {
		name = ext.Name()
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.ProcessorErrorsTotal.WithLabelValues(name).Inc()
			slog.Error("Event processor panicked", "extension", name, "event_kind", string(ev.Kind), "panic", r)
		}
	}()
	if err := p.ProcessEvent(ctx, ev); err != nil {
		metrics.ProcessorErrorsTotal.WithLabelValues(name).Inc()
		slog.Error("Event processor failed", "extension", name, "event_kind", string(ev.Kind), "error", err)
	}
}

// Shutdown refuses new dispatches, drains the ones already running, then
// invokes every activated extension's Shutdown concurrently and waits up to
// the configured aggregate timeout. Extensions that do not complete in time
// are abandoned with a warning. The active set and command table are cleared
// unconditionally afterwards.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return
	}
	r.closing = true
	active := make([]Extension, len(r.active))
	copy(active, r.active)
	for _, ext := range active {
		r.states[ext.ID()] = StateShutdownRequested
	}
	r.mu.Unlock()

	// In-flight handler and processor calls finish first; new ones bounce
	// off the closing flag, including re-entrant notifications triggered
	// by a draining handler.
	r.inflight.Wait()

	done := make(chan uuid.UUID, len(active))
	for _, ext := range active {
		go func(ext Extension) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("Extension shutdown panicked", "extension", ext.Name(), "panic", rec)
				}
				done <- ext.ID()
			}()
			if err := ext.Shutdown(ctx); err != nil {
				slog.Warn("Extension shutdown returned error", "extension", ext.Name(), "error", err)
			}
		}(ext)
	}

	completed := make(map[uuid.UUID]bool, len(active))
	timeout := r.clock.NewTimer(r.shutdownTimeout)
	defer timeout.Stop()

wait:
	for range active {
		select {
		case id := <-done:
			completed[id] = true
		case <-timeout.Chan():
			break wait
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range active {
		if !completed[ext.ID()] {
			metrics.ExtensionShutdownTimeoutsTotal.Inc()
			slog.Warn("Extension did not shut down within timeout, abandoning",
				"extension", ext.Name(),
				"timeout", r.shutdownTimeout,
			)
		}
		r.states[ext.ID()] = StateGone
	}

	r.active = nil
	r.processors = nil
	r.commands = make(map[string]Extension)
	r.manifests = make(map[uuid.UUID]*Manifest)
	metrics.ActiveExtensions.Set(0)
}

// Descriptors returns summaries of the activated extensions, including the
// optional capabilities each one exposes (commands, UI page, config section).
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.active))
	for _, ext := range r.active {
		d := Descriptor{
			ID:      ext.ID(),
			Name:    ext.Name(),
			Author:  ext.Author(),
			Version: ext.Version(),
		}
		if m, ok := r.manifests[ext.ID()]; ok {
			d.Kind = m.Kind
		}
		if h, ok := ext.(CommandHandler); ok {
			d.Commands = h.Commands()
		}
		if p, ok := ext.(PageProvider); ok {
			d.Page = p.PageName()
		}
		if cfg, ok := ext.(Configurable); ok {
			d.ConfigSection = cfg.ConfigSection()
		}
		descriptors = append(descriptors, d)
	}
	return descriptors
}

// ActiveCount returns the number of activated extensions.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// StateOf returns the lifecycle state recorded for an extension id.
func (r *Registry) StateOf(id uuid.UUID) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[id]
	return s, ok
}
