package health

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
)

// State holds the latest aggregate health map. The poller is the only
// writer and always replaces the map wholesale, so readers always observe
// a consistent snapshot of one full poll cycle.
type State struct {
	mu       sync.RWMutex
	records  map[string]domain.HealthRecord
	lastTick time.Time
}

// NewState creates an empty health state.
func NewState() *State {
	return &State{
		records: make(map[string]domain.HealthRecord),
	}
}

// Publish replaces the full health map. Never a partial merge.
func (s *State) Publish(records map[string]domain.HealthRecord) {
	copied := make(map[string]domain.HealthRecord, len(records))
	for name, record := range records {
		copied[name] = record
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = copied
	s.lastTick = time.Now()
}

// Snapshot returns a copy of the current health map.
func (s *State) Snapshot() map[string]domain.HealthRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(map[string]domain.HealthRecord, len(s.records))
	for name, record := range s.records {
		copied[name] = record
	}
	return copied
}

// LastTick returns when the poller last published a full map.
func (s *State) LastTick() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastTick
}
