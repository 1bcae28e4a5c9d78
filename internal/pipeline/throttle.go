package pipeline

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
)

// DefaultThrottleBuffer bounds how many events wait for a batched flush.
const DefaultThrottleBuffer = 50

// EmitFunc receives the events that survive throttling: a single event for
// an immediate broadcast, several for a batched flush.
type EmitFunc func(events []domain.Event)

// Throttler caps the outbound broadcast rate. An event arriving at least
// minInterval after the previous broadcast goes out immediately; anything
// faster is buffered (oldest dropped past the cap) and flushed as one batch
// once 5x minInterval has elapsed since the last flush.
type Throttler struct {
	mu          sync.Mutex
	minInterval time.Duration
	bufferCap   int
	emit        EmitFunc

	lastBroadcast time.Time
	lastFlush     time.Time
	buffer        []domain.Event
	flushTimer    *time.Timer
	stopped       bool

	dropped int64

	now func() time.Time // injectable for tests
}

// NewThrottler creates a throttler that forwards surviving events to emit.
func NewThrottler(minInterval time.Duration, bufferCap int, emit EmitFunc) *Throttler {
	if bufferCap <= 0 {
		bufferCap = DefaultThrottleBuffer
	}
	return &Throttler{
		minInterval: minInterval,
		bufferCap:   bufferCap,
		emit:        emit,
		now:         time.Now,
	}
}

// TryBroadcast emits the event immediately when the rate allows, otherwise
// buffers it for the next batched flush. Returns true on immediate emit.
func (t *Throttler) TryBroadcast(event domain.Event) bool {
	t.mu.Lock()

	if t.stopped {
		t.mu.Unlock()
		return false
	}

	now := t.now()
	if now.Sub(t.lastBroadcast) >= t.minInterval && len(t.buffer) == 0 {
		t.lastBroadcast = now
		t.mu.Unlock()
		t.emit([]domain.Event{event})
		return true
	}

	if len(t.buffer) >= t.bufferCap {
		t.buffer = t.buffer[1:]
		t.dropped++
	}
	t.buffer = append(t.buffer, event)
	t.scheduleFlushLocked(now)
	t.mu.Unlock()
	return false
}

// ForceBroadcast bypasses throttling entirely. For critical/control events.
func (t *Throttler) ForceBroadcast(event domain.Event) {
	t.mu.Lock()
	t.lastBroadcast = t.now()
	stopped := t.stopped
	t.mu.Unlock()

	if !stopped {
		t.emit([]domain.Event{event})
	}
}

// scheduleFlushLocked arms the flush timer for 5x minInterval after the
// last flush. Caller holds t.mu.
func (t *Throttler) scheduleFlushLocked(now time.Time) {
	if t.flushTimer != nil {
		return
	}

	delay := t.lastFlush.Add(5 * t.minInterval).Sub(now)
	if delay < 0 {
		delay = 5 * t.minInterval
	}
	t.flushTimer = time.AfterFunc(delay, t.Flush)
}

// Flush emits the whole buffer as one batch.
func (t *Throttler) Flush() {
	t.mu.Lock()
	if t.flushTimer != nil {
		t.flushTimer.Stop()
		t.flushTimer = nil
	}

	batch := t.buffer
	t.buffer = nil
	now := t.now()
	t.lastFlush = now
	if len(batch) > 0 {
		t.lastBroadcast = now
	}
	stopped := t.stopped
	t.mu.Unlock()

	if len(batch) > 0 && !stopped {
		t.emit(batch)
	}
}

// Dropped returns how many buffered events were lost to overflow.
func (t *Throttler) Dropped() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.dropped
}

// Stop disarms the flush timer. Buffered events are discarded.
func (t *Throttler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.flushTimer != nil {
		t.flushTimer.Stop()
		t.flushTimer = nil
	}
	t.buffer = nil
}
