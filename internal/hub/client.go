package hub

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/beacon/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10

	// sendBufferSize bounds the per-client outbound queue. A consumer that
	// falls further behind than this loses frames instead of stalling the
	// hub or the other subscribers.
	sendBufferSize = 64
)

// Client is one live subscriber connection. Created on connect, destroyed
// on disconnect; its window counters live in the hub's rate limiter.
type Client struct {
	ID          string
	ConnectedAt time.Time

	hub    *Hub
	conn   *websocket.Conn
	logger logger.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient wraps an upgraded websocket connection.
func NewClient(h *Hub, conn *websocket.Conn, log logger.Logger) *Client {
	return &Client{
		ID:          newClientID(),
		ConnectedAt: time.Now(),
		hub:         h,
		conn:        conn,
		logger:      log,
		send:        make(chan []byte, sendBufferSize),
	}
}

func newClientID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "client-" + hex.EncodeToString([]byte(time.Now().Format("150405.000")))
	}
	return hex.EncodeToString(buf)
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// enqueue offers one frame to the client without ever blocking. Frames to a
// full or closed queue are dropped; delivery is best effort.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend shuts the outbound queue, stopping the write pump. Idempotent.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump consumes inbound frames. The proxy's live channel is read-only
// for clients, so inbound traffic is only counted against the rate limit
// and dropped; the limiter governs messages from the client, not liveness.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error",
					logger.String("client_id", c.ID),
					logger.Error(err))
			}
			return
		}

		ok, justBlocked, retryAfter := c.hub.limiter.Admit(c.ID)
		if !ok && justBlocked {
			c.logger.Warn("client rate limited",
				logger.String("client_id", c.ID),
				logger.Duration("retry_after", retryAfter))
			c.enqueue(RateLimitedFrame(retryAfter))
		}
	}
}

// writePump drains the send queue to the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
