package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"timerId":        "f3f7",
		"elapsedSeconds": 90,
	}

	before := time.Now()
	evt := NewEvent(EventTypeStarted, EntityTypeTimer, payload)
	after := time.Now()

	assert.Equal(t, "timer.started", evt.Type)
	assert.Equal(t, EntityTypeTimer, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{"started", TimerStarted(nil), "timer.started"},
		{"paused", TimerPaused(nil), "timer.paused"},
		{"resumed", TimerResumed(nil), "timer.resumed"},
		{"stopped", TimerStopped(nil), "timer.stopped"},
		{"cancelled", TimerCancelled(nil), "timer.cancelled"},
		{"entry created", TimeEntryCreated(nil), "time_entry.created"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Type)
		})
	}
}

func TestEvent_ToJSON(t *testing.T) {
	evt := TimerStopped(map[string]interface{}{"durationSeconds": 90})

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "timer.stopped", decoded["type"])
	assert.Equal(t, "timer", decoded["entity"])
	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(90), payload["durationSeconds"])
}

func TestNoOpPublisher(t *testing.T) {
	// Must be safe to call with any input
	p := &NoOpPublisher{}
	p.Publish(1, TimerStarted(nil))
}
