package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeTimeout bounds a single write to the peer
	writeTimeout = 10 * time.Second

	// pongTimeout is how long the connection may go without a pong before
	// the read side gives up
	pongTimeout = 60 * time.Second

	// pingInterval must stay under pongTimeout
	pingInterval = (pongTimeout * 9) / 10

	// readLimit caps inbound frames; the feed is one-directional so
	// clients have no reason to send anything large
	readLimit = 512

	// sendBuffer is the per-client outbound queue; a client that falls
	// this far behind is dropped rather than allowed to stall the hub
	sendBuffer = 256
)

// Client is one subscriber to a workspace's timer event feed. The feed is
// broadcast-only: inbound frames are drained purely to service pongs and
// detect closes.
type Client struct {
	id          string
	workspaceID int32
	conn        *websocket.Conn
	hub         *Hub
	send        chan []byte
	mu          sync.RWMutex
	closed      bool
}

// NewClient wraps an upgraded connection as a feed subscriber
func NewClient(conn *websocket.Conn, workspaceID int32, hub *Hub) *Client {
	return &Client{
		id:          uuid.New().String(),
		workspaceID: workspaceID,
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, sendBuffer),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// WorkspaceID returns the workspace this client is subscribed to
func (c *Client) WorkspaceID() int32 {
	return c.workspaceID
}

// Send queues an encoded event for delivery. A full queue means the client
// cannot keep up with the feed; it is reported closed and the hub drops it.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close tears down the connection. Safe to call from multiple goroutines;
// only the first call closes the send queue.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	return c.conn.Close()
}

// IsClosed reports whether the client has been torn down
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ReadPump drains inbound frames until the peer goes away, keeping the
// pong deadline fresh. Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("workspace_id", c.workspaceID).
					Msg("WebSocket unexpected close")
			}
			return
		}
	}
}

// WritePump flushes queued events to the peer and keeps the connection
// alive with pings. Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Queue closed by Close; say goodbye
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("workspace_id", c.workspaceID).
					Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
