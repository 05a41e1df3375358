package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the lifecycle transition an event describes
type EventType string

const (
	EventTypeStarted   EventType = "started"
	EventTypePaused    EventType = "paused"
	EventTypeResumed   EventType = "resumed"
	EventTypeStopped   EventType = "stopped"
	EventTypeCancelled EventType = "cancelled"
	EventTypeCreated   EventType = "created"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTimer     EntityType = "timer"
	EntityTypeTimeEntry EntityType = "time_entry"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "timer.started"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "timer"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TimerStarted creates a timer.started event
func TimerStarted(payload interface{}) Event {
	return NewEvent(EventTypeStarted, EntityTypeTimer, payload)
}

// TimerPaused creates a timer.paused event
func TimerPaused(payload interface{}) Event {
	return NewEvent(EventTypePaused, EntityTypeTimer, payload)
}

// TimerResumed creates a timer.resumed event
func TimerResumed(payload interface{}) Event {
	return NewEvent(EventTypeResumed, EntityTypeTimer, payload)
}

// TimerStopped creates a timer.stopped event
func TimerStopped(payload interface{}) Event {
	return NewEvent(EventTypeStopped, EntityTypeTimer, payload)
}

// TimerCancelled creates a timer.cancelled event
func TimerCancelled(payload interface{}) Event {
	return NewEvent(EventTypeCancelled, EntityTypeTimer, payload)
}

// TimeEntryCreated creates a time_entry.created event
func TimeEntryCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTimeEntry, payload)
}
