package hub

import (
	"sync"
	"time"
)

// RateLimiter caps inbound messages per client over a rolling window.
// Once a client exceeds the cap it is marked blocked until the window rolls
// over; the caller sends a single rate-limit notice at the blocking edge,
// not one per rejected message.
type RateLimiter struct {
	mu          sync.Mutex
	window      time.Duration
	maxMessages int
	clients     map[string]*clientWindow

	now func() time.Time // injectable for tests
}

type clientWindow struct {
	windowStart time.Time
	count       int
	blocked     bool
}

// NewRateLimiter creates a limiter with the given window and cap.
func NewRateLimiter(window time.Duration, maxMessages int) *RateLimiter {
	return &RateLimiter{
		window:      window,
		maxMessages: maxMessages,
		clients:     make(map[string]*clientWindow),
		now:         time.Now,
	}
}

// Admit records one inbound message for the client and reports whether it
// is allowed. justBlocked is true only on the message that crossed the cap,
// so the notice is sent exactly once per window. retryAfter is the time
// left until the window rolls over.
func (rl *RateLimiter) Admit(clientID string) (ok bool, justBlocked bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	w := rl.clients[clientID]
	if w == nil {
		w = &clientWindow{windowStart: now}
		rl.clients[clientID] = w
	}

	if now.Sub(w.windowStart) >= rl.window {
		w.windowStart = now
		w.count = 0
		w.blocked = false
	}

	w.count++
	if w.count > rl.maxMessages {
		justBlocked = !w.blocked
		w.blocked = true
		return false, justBlocked, w.windowStart.Add(rl.window).Sub(now)
	}

	return true, false, 0
}

// Blocked reports whether the client is currently over its cap.
func (rl *RateLimiter) Blocked(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.clients[clientID]
	if w == nil {
		return false
	}
	if rl.now().Sub(w.windowStart) >= rl.window {
		return false
	}
	return w.blocked
}

// Forget drops the client's window state on disconnect.
func (rl *RateLimiter) Forget(clientID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.clients, clientID)
}
