package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id          string
	workspaceID int32
	messages    [][]byte
	mu          sync.Mutex
	closed      bool
}

func newMockClient(id string, workspaceID int32) *mockClient {
	return &mockClient{
		id:          id,
		workspaceID: workspaceID,
		messages:    make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) WorkspaceID() int32 {
	return m.workspaceID
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", 1)
	client2 := newMockClient("client-2", 1)
	client3 := newMockClient("client-3", 2)

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount(1))
	assert.Equal(t, 1, hub.ClientCount(2))

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(1))

	// Unregistering an unknown client is a no-op
	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(1))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount(1))
	assert.Equal(t, 0, hub.ClientCount(2))
}

func TestHub_BroadcastScopedToWorkspace(t *testing.T) {
	hub := NewHub()

	wsOne := newMockClient("client-1", 1)
	wsTwo := newMockClient("client-2", 2)
	hub.Register(wsOne)
	hub.Register(wsTwo)

	hub.Broadcast(1, TimerStarted(map[string]interface{}{"timerId": "abc"}))

	// Sends run in goroutines; give them a moment
	require.Eventually(t, func() bool {
		return len(wsOne.GetMessages()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Len(t, wsTwo.GetMessages(), 0, "other workspace must not receive the event")
}

func TestHub_BroadcastToEmptyWorkspace(t *testing.T) {
	hub := NewHub()

	// Should not panic with no clients registered
	hub.Broadcast(42, TimerStopped(nil))
}

func TestHub_BroadcastReachesAllWorkspaceClients(t *testing.T) {
	hub := NewHub()

	clients := []*mockClient{
		newMockClient("a", 7),
		newMockClient("b", 7),
		newMockClient("c", 7),
	}
	for _, c := range clients {
		hub.Register(c)
	}

	hub.Broadcast(7, TimerPaused(map[string]interface{}{"reason": "lunch"}))

	require.Eventually(t, func() bool {
		for _, c := range clients {
			if len(c.GetMessages()) != 1 {
				return false
			}
		}
		return true
	}, time.Second, 10*time.Millisecond)
}
