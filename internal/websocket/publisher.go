package websocket

// EventPublisher is the sink for timer lifecycle broadcasts. The lifecycle
// engine publishes through this interface so it never depends on the hub
// or on gorilla directly.
type EventPublisher interface {
	// Publish fans the event out to every client subscribed to the workspace.
	// It must not block the caller.
	Publish(workspaceID int32, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher on the hub
func (h *Hub) Publish(workspaceID int32, event Event) {
	h.Broadcast(workspaceID, event)
}

// NoOpPublisher discards all events. Used when the websocket surface is
// disabled and in service tests that don't assert on broadcasts.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(workspaceID int32, event Event) {}
