package callbacks

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LoggingHandler writes one structured record per event half. Payload
// values are logged as given; repositories never put document contents in
// a payload.
type LoggingHandler struct {
	*BaseCallbackHandler
	logger    *slog.Logger
	level     slog.Level
	mu        sync.Mutex
	startTime map[string]time.Time
}

// LoggingHandlerOption configures a LoggingHandler.
type LoggingHandlerOption func(*LoggingHandler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoggingHandlerOption {
	return func(h *LoggingHandler) {
		h.logger = logger
	}
}

// WithLevel sets the level of every record. The default is Debug.
func WithLevel(level slog.Level) LoggingHandlerOption {
	return func(h *LoggingHandler) {
		h.level = level
	}
}

// NewLoggingHandler creates a LoggingHandler writing JSON to stdout.
func NewLoggingHandler(opts ...LoggingHandlerOption) *LoggingHandler {
	h := &LoggingHandler{
		BaseCallbackHandler: NewBaseCallbackHandler(),
		logger:              slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		level:               slog.LevelDebug,
		startTime:           make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *LoggingHandler) OnEventStart(eventType CBEventType, payload map[string]interface{}, eventID string) {
	h.mu.Lock()
	h.startTime[eventID] = time.Now()
	h.mu.Unlock()

	h.logger.Log(context.Background(), h.level, "event start", payloadAttrs(eventType, eventID, payload)...)
}

func (h *LoggingHandler) OnEventEnd(eventType CBEventType, payload map[string]interface{}, eventID string) {
	h.mu.Lock()
	start, ok := h.startTime[eventID]
	delete(h.startTime, eventID)
	h.mu.Unlock()

	args := payloadAttrs(eventType, eventID, payload)
	if ok {
		args = append(args, "duration", time.Since(start))
	}
	level := h.level
	if _, failed := payload[string(EventPayloadException)]; failed {
		level = slog.LevelError
	}
	h.logger.Log(context.Background(), level, "event end", args...)
}

func payloadAttrs(eventType CBEventType, eventID string, payload map[string]interface{}) []any {
	args := []any{"event", string(eventType), "event_id", eventID}
	for k, v := range payload {
		if err, isErr := v.(error); isErr {
			v = err.Error()
		}
		args = append(args, k, v)
	}
	return args
}

var _ CallbackHandler = (*LoggingHandler)(nil)

// CountingHandler counts finished events and their durations per type.
type CountingHandler struct {
	*BaseCallbackHandler
	mu        sync.Mutex
	startTime map[string]time.Time
	counts    map[CBEventType]int
	secs      map[CBEventType]float64
	failures  map[CBEventType]int
}

// NewCountingHandler creates a new CountingHandler.
func NewCountingHandler() *CountingHandler {
	h := &CountingHandler{BaseCallbackHandler: NewBaseCallbackHandler()}
	h.Reset()
	return h
}

func (h *CountingHandler) OnEventStart(eventType CBEventType, payload map[string]interface{}, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.startTime[eventID] = time.Now()
}

func (h *CountingHandler) OnEventEnd(eventType CBEventType, payload map[string]interface{}, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[eventType]++
	if start, ok := h.startTime[eventID]; ok {
		h.secs[eventType] += time.Since(start).Seconds()
		delete(h.startTime, eventID)
	}
	if _, failed := payload[string(EventPayloadException)]; failed {
		h.failures[eventType]++
	}
}

// Count returns the number of finished events of eventType.
func (h *CountingHandler) Count(eventType CBEventType) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[eventType]
}

// Failures returns the number of events of eventType that ended with an error.
func (h *CountingHandler) Failures(eventType CBEventType) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failures[eventType]
}

// Stats returns timing statistics for eventType.
func (h *CountingHandler) Stats(eventType CBEventType) *EventStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return NewEventStats(h.secs[eventType], h.counts[eventType])
}

// Reset clears all counters.
func (h *CountingHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.startTime = make(map[string]time.Time)
	h.counts = make(map[CBEventType]int)
	h.secs = make(map[CBEventType]float64)
	h.failures = make(map[CBEventType]int)
}

var _ CallbackHandler = (*CountingHandler)(nil)

// EventCollectorHandler keeps every event half for later inspection.
type EventCollectorHandler struct {
	*BaseCallbackHandler
	mu          sync.Mutex
	startEvents []*CBEvent
	endEvents   []*CBEvent
}

// NewEventCollectorHandler creates a new EventCollectorHandler.
func NewEventCollectorHandler() *EventCollectorHandler {
	return &EventCollectorHandler{BaseCallbackHandler: NewBaseCallbackHandler()}
}

func (h *EventCollectorHandler) OnEventStart(eventType CBEventType, payload map[string]interface{}, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.startEvents = append(h.startEvents, &CBEvent{EventType: eventType, Payload: payload, Time: time.Now(), ID: eventID})
}

func (h *EventCollectorHandler) OnEventEnd(eventType CBEventType, payload map[string]interface{}, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endEvents = append(h.endEvents, &CBEvent{EventType: eventType, Payload: payload, Time: time.Now(), ID: eventID})
}

// StartEvents returns the collected starts.
func (h *EventCollectorHandler) StartEvents() []*CBEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*CBEvent(nil), h.startEvents...)
}

// EndEvents returns the collected ends.
func (h *EventCollectorHandler) EndEvents() []*CBEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*CBEvent(nil), h.endEvents...)
}

// Clear drops everything collected so far.
func (h *EventCollectorHandler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.startEvents = nil
	h.endEvents = nil
}

var _ CallbackHandler = (*EventCollectorHandler)(nil)
