package callbacks

// CallbackHandler receives event starts and ends.
type CallbackHandler interface {
	OnEventStart(eventType CBEventType, payload map[string]interface{}, eventID string)
	OnEventEnd(eventType CBEventType, payload map[string]interface{}, eventID string)

	// EventsToIgnore returns event types the handler does not want.
	EventsToIgnore() []CBEventType
}

// BaseCallbackHandler is a no-op handler to embed in others.
type BaseCallbackHandler struct {
	ignore []CBEventType
}

// BaseCallbackHandlerOption configures a BaseCallbackHandler.
type BaseCallbackHandlerOption func(*BaseCallbackHandler)

// WithEventsToIgnore sets event types to skip.
func WithEventsToIgnore(events ...CBEventType) BaseCallbackHandlerOption {
	return func(h *BaseCallbackHandler) {
		h.ignore = events
	}
}

// NewBaseCallbackHandler creates a new BaseCallbackHandler.
func NewBaseCallbackHandler(opts ...BaseCallbackHandlerOption) *BaseCallbackHandler {
	h := &BaseCallbackHandler{ignore: []CBEventType{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BaseCallbackHandler) EventsToIgnore() []CBEventType {
	return h.ignore
}

func (h *BaseCallbackHandler) OnEventStart(eventType CBEventType, payload map[string]interface{}, eventID string) {
}

func (h *BaseCallbackHandler) OnEventEnd(eventType CBEventType, payload map[string]interface{}, eventID string) {
}

var _ CallbackHandler = (*BaseCallbackHandler)(nil)
