package callbacks

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCBEvent tests the CBEvent struct.
func TestCBEvent(t *testing.T) {
	t.Run("NewCBEvent", func(t *testing.T) {
		payload := map[string]interface{}{"collection": "users"}
		event := NewCBEvent(CBEventTypeGet, payload)

		assert.Equal(t, CBEventTypeGet, event.EventType)
		assert.Equal(t, payload, event.Payload)
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Time.IsZero())
	})

	t.Run("Event type values", func(t *testing.T) {
		assert.Equal(t, CBEventType("get"), CBEventTypeGet)
		assert.Equal(t, CBEventType("query"), CBEventTypeQuery)
		assert.Equal(t, CBEventType("save"), CBEventTypeSave)
		assert.Equal(t, CBEventType("merge"), CBEventTypeMerge)
		assert.Equal(t, CBEventType("delete"), CBEventTypeDelete)
		assert.Len(t, AllEventTypes, 5)
	})
}

func TestEventStats(t *testing.T) {
	stats := NewEventStats(10.0, 5)
	assert.Equal(t, 2.0, stats.AverageSecs)

	stats = NewEventStats(0.0, 0)
	assert.Equal(t, 0.0, stats.AverageSecs)
	assert.Equal(t, 0, stats.TotalCount)
}

func TestCallbackManager(t *testing.T) {
	t.Run("start and end share an id", func(t *testing.T) {
		collector := NewEventCollectorHandler()
		manager := NewCallbackManager(WithHandlers(collector))

		eventID := manager.OnEventStart(CBEventTypeQuery, map[string]interface{}{"page": 1}, "")
		require.NotEmpty(t, eventID)
		manager.OnEventEnd(CBEventTypeQuery, map[string]interface{}{"count": 3}, eventID)

		require.Len(t, collector.StartEvents(), 1)
		require.Len(t, collector.EndEvents(), 1)
		assert.Equal(t, eventID, collector.StartEvents()[0].ID)
		assert.Equal(t, eventID, collector.EndEvents()[0].ID)
		assert.Equal(t, 3, collector.EndEvents()[0].Payload["count"])
	})

	t.Run("ignored event types", func(t *testing.T) {
		collector := &EventCollectorHandler{BaseCallbackHandler: NewBaseCallbackHandler(WithEventsToIgnore(CBEventTypeGet))}
		manager := NewCallbackManager(WithHandlers(collector))

		manager.OnEventStart(CBEventTypeGet, nil, "")
		manager.OnEventStart(CBEventTypeSave, nil, "")

		require.Len(t, collector.StartEvents(), 1)
		assert.Equal(t, CBEventTypeSave, collector.StartEvents()[0].EventType)
	})

	t.Run("add and remove handlers", func(t *testing.T) {
		manager := NewCallbackManager()
		handler := NewBaseCallbackHandler()

		manager.AddHandler(handler)
		assert.Len(t, manager.Handlers(), 1)
		manager.RemoveHandler(handler)
		assert.Empty(t, manager.Handlers())
	})

	t.Run("nil manager drops events", func(t *testing.T) {
		var manager *CallbackManager
		id := manager.OnEventStart(CBEventTypeDelete, nil, "")
		assert.NotEmpty(t, id)
		manager.OnEventEnd(CBEventTypeDelete, nil, id)

		err := manager.WithEvent(CBEventTypeDelete, nil, func() (map[string]interface{}, error) {
			return nil, nil
		})
		assert.NoError(t, err)
	})
}

func TestWithEvent(t *testing.T) {
	counter := NewCountingHandler()
	collector := NewEventCollectorHandler()
	manager := NewCallbackManager(WithHandlers(counter, collector))

	err := manager.WithEvent(CBEventTypeSave, nil, func() (map[string]interface{}, error) {
		return map[string]interface{}{"id": "abc"}, nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = manager.WithEvent(CBEventTypeSave, nil, func() (map[string]interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 2, counter.Count(CBEventTypeSave))
	assert.Equal(t, 1, counter.Failures(CBEventTypeSave))
	assert.Equal(t, 2, counter.Stats(CBEventTypeSave).TotalCount)
	assert.Zero(t, counter.Count(CBEventTypeGet))

	ends := collector.EndEvents()
	require.Len(t, ends, 2)
	assert.Equal(t, boom, ends[1].Payload[string(EventPayloadException)])

	counter.Reset()
	assert.Zero(t, counter.Count(CBEventTypeSave))
	collector.Clear()
	assert.Empty(t, collector.EndEvents())
}

func TestLoggingHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	manager := NewCallbackManager(WithHandlers(NewLoggingHandler(WithLogger(logger))))

	_ = manager.WithEvent(CBEventTypeGet, map[string]interface{}{"collection": "users", "id": "u1"}, func() (map[string]interface{}, error) {
		return nil, errors.New("unavailable")
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var start, end map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &start))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &end))

	assert.Equal(t, "event start", start["msg"])
	assert.Equal(t, "DEBUG", start["level"])
	assert.Equal(t, "get", start["event"])
	assert.Equal(t, "users", start["collection"])

	assert.Equal(t, "event end", end["msg"])
	assert.Equal(t, "ERROR", end["level"])
	assert.Equal(t, "unavailable", end["exception"])
	assert.Equal(t, start["event_id"], end["event_id"])
	assert.Contains(t, end, "duration")
}

func TestLoggingHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := NewLoggingHandler(WithLogger(logger))
	h.OnEventStart(CBEventTypeSave, nil, "x")
	assert.Empty(t, buf.String(), "debug records are filtered at the default level")

	h = NewLoggingHandler(WithLogger(logger), WithLevel(slog.LevelInfo))
	h.OnEventStart(CBEventTypeSave, nil, "x")
	assert.Contains(t, buf.String(), `"event":"save"`)
}
