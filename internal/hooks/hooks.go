// Package hooks dispatches linkpost run lifecycle events to registered
// handlers, including shell commands declared in config.
package hooks

import (
	"context"
	"time"

	"github.com/soyeahso/linkpost/internal/logging"
)

// Event names for the hook system.
const (
	EventLinkAcquired   = "link_acquired"
	EventLinkFailed     = "link_failed"
	EventMessageSending = "message_sending"
	EventMessageSent    = "message_sent"
	EventRunFailed      = "run_failed"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventLinkAcquired,
	EventLinkFailed,
	EventMessageSending,
	EventMessageSent,
	EventRunFailed,
}

// Payload is what a handler receives, and what a shell hook reads as JSON
// on stdin.
type Payload struct {
	Event string         `json:"event"`
	At    time.Time      `json:"at"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler handles one event. A returned error is logged and never stops the
// run or the remaining handlers.
type Handler func(ctx context.Context, p Payload) error

type namedHandler struct {
	name    string
	handler Handler
}

// Manager holds handlers per event. A run is sequential, so the manager is
// not safe for concurrent registration.
type Manager struct {
	handlers map[string][]namedHandler
	log      *logging.Logger
	now      func() time.Time
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
		now:      time.Now,
	}
}

// On registers a handler for event. name shows up in logs.
func (m *Manager) On(event, name string, handler Handler) {
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Emit calls the handlers for event in registration order and returns how
// many failed.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) int {
	handlers := m.handlers[event]
	if len(handlers) == 0 {
		return 0
	}

	payload := Payload{Event: event, At: m.now(), Data: data}
	failed := 0
	for _, h := range handlers {
		start := time.Now()
		err := h.handler(ctx, payload)
		elapsed := time.Since(start)
		if err != nil {
			failed++
			m.log.Warn().
				Err(err).
				Str("event", event).
				Str("handler", h.name).
				Dur("elapsed", elapsed).
				Msg("hook failed")
			continue
		}
		m.log.Debug().Str("event", event).Str("handler", h.name).Dur("elapsed", elapsed).Msg("hook ran")
	}
	return failed
}
