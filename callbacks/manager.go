package callbacks

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// CallbackManager dispatches events to its handlers. A nil *CallbackManager
// is valid and drops every event.
type CallbackManager struct {
	mu       sync.RWMutex
	handlers []CallbackHandler
}

// CallbackManagerOption configures a CallbackManager.
type CallbackManagerOption func(*CallbackManager)

// WithHandlers sets the handlers.
func WithHandlers(handlers ...CallbackHandler) CallbackManagerOption {
	return func(m *CallbackManager) {
		m.handlers = handlers
	}
}

// NewCallbackManager creates a new CallbackManager.
func NewCallbackManager(opts ...CallbackManagerOption) *CallbackManager {
	m := &CallbackManager{handlers: []CallbackHandler{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnEventStart notifies handlers and returns the event id, generating one
// if eventID is empty.
func (m *CallbackManager) OnEventStart(eventType CBEventType, payload map[string]interface{}, eventID string) string {
	if eventID == "" {
		eventID = uuid.New().String()
	}
	for _, h := range m.active(eventType) {
		h.OnEventStart(eventType, payload, eventID)
	}
	return eventID
}

// OnEventEnd notifies handlers that the event has finished.
func (m *CallbackManager) OnEventEnd(eventType CBEventType, payload map[string]interface{}, eventID string) {
	for _, h := range m.active(eventType) {
		h.OnEventEnd(eventType, payload, eventID)
	}
}

func (m *CallbackManager) active(eventType CBEventType) []CallbackHandler {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CallbackHandler, 0, len(m.handlers))
	for _, h := range m.handlers {
		if !slices.Contains(h.EventsToIgnore(), eventType) {
			out = append(out, h)
		}
	}
	return out
}

// AddHandler adds a handler.
func (m *CallbackManager) AddHandler(handler CallbackHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// RemoveHandler removes a handler.
func (m *CallbackManager) RemoveHandler(handler CallbackHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = slices.DeleteFunc(m.handlers, func(h CallbackHandler) bool { return h == handler })
}

// Handlers returns a copy of the current handlers.
func (m *CallbackManager) Handlers() []CallbackHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.handlers)
}

// WithEvent runs fn between an event start and end. The error returned by
// fn is added to the end payload under EventPayloadException and returned.
func (m *CallbackManager) WithEvent(
	eventType CBEventType,
	startPayload map[string]interface{},
	fn func() (map[string]interface{}, error),
) error {
	eventID := m.OnEventStart(eventType, startPayload, "")
	endPayload, err := fn()
	if err != nil {
		if endPayload == nil {
			endPayload = make(map[string]interface{})
		}
		endPayload[string(EventPayloadException)] = err
	}
	m.OnEventEnd(eventType, endPayload, eventID)
	return err
}
