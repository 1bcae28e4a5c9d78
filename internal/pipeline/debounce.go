package pipeline

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
)

// cleanupHighWater is the seen-id count past which ShouldAccept runs a
// cleanup pass, keeping the map bounded under sustained traffic.
const cleanupHighWater = 4096

// Debouncer suppresses identical rapid repeats: an event whose message id
// was already accepted within the window is rejected outright, with no side
// effect on the recorded timestamp.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time

	rejected int64

	now func() time.Time // injectable for tests
}

// NewDebouncer creates a debouncer with the given suppression window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// ShouldAccept reports whether the event survives deduplication.
func (d *Debouncer) ShouldAccept(event domain.Event) bool {
	id := event.MessageID()

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if accepted, ok := d.seen[id]; ok && now.Sub(accepted) < d.window {
		d.rejected++
		return false
	}

	d.seen[id] = now

	if len(d.seen) > cleanupHighWater {
		d.cleanupLocked(now)
	}
	return true
}

// cleanupLocked drops id records old enough that they can no longer
// suppress anything. Caller holds d.mu.
func (d *Debouncer) cleanupLocked(now time.Time) {
	horizon := now.Add(-2 * d.window)
	for id, accepted := range d.seen {
		if accepted.Before(horizon) {
			delete(d.seen, id)
		}
	}
}

// Rejected returns how many events were suppressed so far.
func (d *Debouncer) Rejected() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.rejected
}
