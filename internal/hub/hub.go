package hub

import (
	"context"
	"sync/atomic"

	"github.com/MrSnakeDoc/beacon/internal/logger"
)

// SnapshotFunc produces the pre-marshaled frames a new subscriber receives
// before joining the live broadcast: the current health map first, then the
// recent message window.
type SnapshotFunc func() [][]byte

// Hub owns the set of live subscriber connections. All membership changes
// and broadcasts are funneled through the hub goroutine, so the client set
// is never mutated concurrently.
type Hub struct {
	logger   logger.Logger
	limiter  *RateLimiter
	snapshot SnapshotFunc

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	clients map[*Client]bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	clientCount   int64
	framesSent    int64
	framesDropped int64
}

// New creates a hub. snapshot may be nil (no snapshot on connect).
func New(limiter *RateLimiter, snapshot SnapshotFunc, log logger.Logger) *Hub {
	return &Hub{
		logger:     log,
		limiter:    limiter,
		snapshot:   snapshot,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]bool),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the hub goroutine.
func (h *Hub) Start(ctx context.Context) {
	go h.run(ctx)
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	close(h.stopCh)
	<-h.doneCh
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.doneCh)

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case frame := <-h.broadcast:
			h.fanOut(frame)

		case <-h.stopCh:
			h.closeAll()
			return

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// handleRegister queues the snapshot frames before adding the client to the
// broadcast set, so the snapshot always precedes any live frame.
func (h *Hub) handleRegister(client *Client) {
	if h.snapshot != nil {
		for _, frame := range h.snapshot() {
			client.enqueue(frame)
		}
	}

	h.clients[client] = true
	atomic.StoreInt64(&h.clientCount, int64(len(h.clients)))

	h.logger.Info("subscriber connected",
		logger.String("client_id", client.ID),
		logger.Int("clients", len(h.clients)))
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	client.closeSend()
	h.limiter.Forget(client.ID)
	atomic.StoreInt64(&h.clientCount, int64(len(h.clients)))

	h.logger.Info("subscriber disconnected",
		logger.String("client_id", client.ID),
		logger.Int("clients", len(h.clients)))
}

// fanOut delivers one frame to every connection, fire and forget. A slow
// consumer loses the frame rather than blocking delivery to the rest.
// Blocked clients still receive outbound broadcasts.
func (h *Hub) fanOut(frame []byte) {
	for client := range h.clients {
		if client.enqueue(frame) {
			atomic.AddInt64(&h.framesSent, 1)
		} else {
			atomic.AddInt64(&h.framesDropped, 1)
		}
	}
}

func (h *Hub) closeAll() {
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}
	atomic.StoreInt64(&h.clientCount, 0)
}

// Register hands a new connection to the hub goroutine.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopCh:
		client.closeSend()
	}
}

// Unregister removes a connection. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopCh:
	}
}

// Broadcast fans one frame out to all connected subscribers.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	case <-h.stopCh:
	}
}

// Clients returns the current subscriber count.
func (h *Hub) Clients() int {
	return int(atomic.LoadInt64(&h.clientCount))
}

// Stats returns the hub's delivery counters.
func (h *Hub) Stats() (sent, dropped int64) {
	return atomic.LoadInt64(&h.framesSent), atomic.LoadInt64(&h.framesDropped)
}
