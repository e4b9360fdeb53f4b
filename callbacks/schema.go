// Package callbacks reports repository operations to pluggable handlers.
//
// Each operation is an event with a start and an end. Handlers receive both
// halves with the same event id and a payload describing the call.
package callbacks

import (
	"time"

	"github.com/google/uuid"
)

// CBEventType names a repository operation.
type CBEventType string

const (
	// CBEventTypeGet covers fetches by id, single or batch.
	CBEventTypeGet CBEventType = "get"
	// CBEventTypeQuery covers pages, full listings and counts.
	CBEventTypeQuery CBEventType = "query"
	// CBEventTypeSave covers inserts and updates.
	CBEventTypeSave CBEventType = "save"
	// CBEventTypeMerge covers partial updates.
	CBEventTypeMerge CBEventType = "merge"
	// CBEventTypeDelete covers deletes.
	CBEventTypeDelete CBEventType = "delete"
)

// AllEventTypes lists every event type.
var AllEventTypes = []CBEventType{
	CBEventTypeGet,
	CBEventTypeQuery,
	CBEventTypeSave,
	CBEventTypeMerge,
	CBEventTypeDelete,
}

// EventPayload is a well-known payload key.
type EventPayload string

const (
	EventPayloadCollection EventPayload = "collection"
	EventPayloadID         EventPayload = "id"
	EventPayloadIDs        EventPayload = "ids"
	EventPayloadFilters    EventPayload = "filters"
	EventPayloadPage       EventPayload = "page"
	EventPayloadPageSize   EventPayload = "page_size"
	EventPayloadCount      EventPayload = "count"
	EventPayloadInsert     EventPayload = "insert"
	EventPayloadKeys       EventPayload = "keys"
	EventPayloadException  EventPayload = "exception"
)

// CBEvent records one half of an event.
type CBEvent struct {
	EventType CBEventType
	Payload   map[string]interface{}
	Time      time.Time
	ID        string
}

// NewCBEvent creates a CBEvent with a fresh id.
func NewCBEvent(eventType CBEventType, payload map[string]interface{}) *CBEvent {
	return &CBEvent{
		EventType: eventType,
		Payload:   payload,
		Time:      time.Now(),
		ID:        uuid.New().String(),
	}
}

// EventStats contains time-based statistics for one event type.
type EventStats struct {
	TotalSecs   float64
	AverageSecs float64
	TotalCount  int
}

// NewEventStats creates an EventStats.
func NewEventStats(totalSecs float64, count int) *EventStats {
	avgSecs := 0.0
	if count > 0 {
		avgSecs = totalSecs / float64(count)
	}
	return &EventStats{
		TotalSecs:   totalSecs,
		AverageSecs: avgSecs,
		TotalCount:  count,
	}
}
