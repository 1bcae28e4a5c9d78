package messages

import (
	"container/list"
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MrSnakeDoc/beacon/internal/domain"
)

// Options bound the store. Zero values fall back to the defaults.
type Options struct {
	MaxEntries       int           // global cap, default 1000
	MaxPerTopic      int           // per-topic cap, default 100
	MaxAge           time.Duration // sweep horizon, default 1h
	CompactThreshold int           // payload bytes before compaction, default 1000
}

func (o Options) withDefaults() Options {
	if o.MaxEntries <= 0 {
		o.MaxEntries = 1000
	}
	if o.MaxPerTopic <= 0 {
		o.MaxPerTopic = 100
	}
	if o.MaxAge <= 0 {
		o.MaxAge = time.Hour
	}
	if o.CompactThreshold <= 0 {
		o.CompactThreshold = 1000
	}
	return o
}

// Stats is a point-in-time view of the store, for observability.
type Stats struct {
	Entries    int   `json:"entries"`
	Topics     int   `json:"topics"`
	TotalBytes int   `json:"total_bytes"`
	Evictions  int64 `json:"evictions"`
}

// Store keeps a bounded window of recent events, indexed by topic.
//
// Invariants: entry count never exceeds MaxEntries (oldest-insert evicted
// first), per-topic count never exceeds MaxPerTopic (oldest-first trim),
// and evicting an entry always removes its id from the topic index too.
type Store struct {
	mu   sync.Mutex
	opts Options

	order   *list.List               // *domain.StoredEvent, oldest at front
	byID    map[string]*list.Element // id -> list element
	byTopic map[string][]string      // topic -> ids, oldest first

	totalBytes int
	evictions  int64
	seq        uint64

	now func() time.Time // injectable for tests
}

// New creates a store with the given bounds.
func New(opts Options) *Store {
	return &Store{
		opts:    opts.withDefaults(),
		order:   list.New(),
		byID:    make(map[string]*list.Element),
		byTopic: make(map[string][]string),
		now:     time.Now,
	}
}

// Store inserts one event and returns its id. Oversized payloads are
// compacted before insertion; both the global window and the topic index
// are trimmed to their caps afterwards.
func (s *Store) Store(event domain.Event) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.Payload = compactPayload(event.Payload, s.opts.CompactThreshold)

	id := event.MessageID()
	if _, exists := s.byID[id]; exists {
		// Same debounce identity stored twice; refresh rather than
		// holding two entries under one id.
		s.removeLocked(id)
	}

	stored := &domain.StoredEvent{
		Event:     event,
		ID:        id,
		SizeBytes: len(event.Topic) + len(event.Payload),
		StoredAt:  s.now(),
	}

	s.byID[id] = s.order.PushBack(stored)
	s.byTopic[event.Topic] = append(s.byTopic[event.Topic], id)
	s.totalBytes += stored.SizeBytes
	s.seq++

	s.trimTopicLocked(event.Topic)
	s.trimGlobalLocked()

	return id
}

// trimGlobalLocked evicts oldest-inserted entries past MaxEntries.
func (s *Store) trimGlobalLocked() {
	for s.order.Len() > s.opts.MaxEntries {
		front := s.order.Front()
		if front == nil {
			return
		}
		s.removeLocked(front.Value.(*domain.StoredEvent).ID)
		s.evictions++
	}
}

// trimTopicLocked evicts the oldest entries of one topic past MaxPerTopic.
func (s *Store) trimTopicLocked(topic string) {
	for len(s.byTopic[topic]) > s.opts.MaxPerTopic {
		s.removeLocked(s.byTopic[topic][0])
		s.evictions++
	}
}

// removeLocked deletes one entry from the list, the id map and the topic
// index. Caller holds s.mu.
func (s *Store) removeLocked(id string) {
	elem, ok := s.byID[id]
	if !ok {
		return
	}
	stored := elem.Value.(*domain.StoredEvent)

	s.order.Remove(elem)
	delete(s.byID, id)
	s.totalBytes -= stored.SizeBytes

	ids := s.byTopic[stored.Topic]
	for i, candidate := range ids {
		if candidate == id {
			s.byTopic[stored.Topic] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byTopic[stored.Topic]) == 0 {
		delete(s.byTopic, stored.Topic)
	}
}

// Recent returns up to limit most recent events across all topics,
// newest-last.
func (s *Store) Recent(limit int) []domain.StoredEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > s.order.Len() {
		limit = s.order.Len()
	}

	events := make([]domain.StoredEvent, 0, limit)
	elem := s.order.Back()
	for elem != nil && len(events) < limit {
		events = append(events, *elem.Value.(*domain.StoredEvent))
		elem = elem.Prev()
	}
	reverse(events)
	return events
}

// ByTopic returns up to limit events for one topic, newest-last.
func (s *Store) ByTopic(topic string, limit int) []domain.StoredEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byTopic[topic]
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}

	events := make([]domain.StoredEvent, 0, len(ids))
	for _, id := range ids {
		if elem, ok := s.byID[id]; ok {
			events = append(events, *elem.Value.(*domain.StoredEvent))
		}
	}
	return events
}

// Search does a case-insensitive substring match over topic and serialized
// payload. Linear scan: correctness over throughput, acceptable because the
// store is bounded. Results newest-last, capped at limit.
func (s *Store) Search(pattern string, limit int) []domain.StoredEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(pattern)

	var matches []domain.StoredEvent
	elem := s.order.Back()
	for elem != nil {
		stored := elem.Value.(*domain.StoredEvent)
		if strings.Contains(strings.ToLower(stored.Topic), needle) ||
			strings.Contains(strings.ToLower(string(stored.Payload)), needle) {
			matches = append(matches, *stored)
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
		elem = elem.Prev()
	}
	reverse(matches)
	return matches
}

// SweepExpired removes every entry older than MaxAge and returns how many
// were dropped. Bounds memory under low traffic, where the size caps alone
// would retain stale history indefinitely.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	horizon := s.now().Add(-s.opts.MaxAge)
	removed := 0

	// Insertion order is chronological, so expired entries sit at the front.
	for {
		front := s.order.Front()
		if front == nil {
			break
		}
		stored := front.Value.(*domain.StoredEvent)
		if !stored.StoredAt.Before(horizon) {
			break
		}
		s.removeLocked(stored.ID)
		s.evictions++
		removed++
	}
	return removed
}

// Count returns the number of stored events.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.order.Len()
}

// Stats returns a snapshot of the store's size and eviction counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Entries:    s.order.Len(),
		Topics:     len(s.byTopic),
		TotalBytes: s.totalBytes,
		Evictions:  s.evictions,
	}
}

// compactPayload truncates payloads above threshold to a preview envelope.
// The original is gone; the envelope records how large it was.
func compactPayload(payload json.RawMessage, threshold int) json.RawMessage {
	if len(payload) <= threshold {
		return payload
	}

	preview := payload[:threshold]
	for len(preview) > 0 && !utf8.Valid(preview) {
		preview = preview[:len(preview)-1]
	}

	compacted, err := json.Marshal(map[string]any{
		"compacted":      true,
		"original_bytes": len(payload),
		"preview":        string(preview),
	})
	if err != nil {
		return json.RawMessage(`{"compacted":true}`)
	}
	return compacted
}

func reverse(events []domain.StoredEvent) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}
