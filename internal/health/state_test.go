package health

import (
	"testing"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
)

func TestStatePublishReplacesWholesale(t *testing.T) {
	s := NewState()
	s.Publish(map[string]domain.HealthRecord{
		"beacon-stt": {ServiceName: "beacon-stt", Status: domain.StatusHealthy},
		"beacon-tts": {ServiceName: "beacon-tts", Status: domain.StatusHealthy},
	})
	s.Publish(map[string]domain.HealthRecord{
		"beacon-stt": {ServiceName: "beacon-stt", Status: domain.StatusUnhealthy},
	})

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot size = %d, want 1 after wholesale replace", len(snap))
	}
	if snap["beacon-stt"].Status != domain.StatusUnhealthy {
		t.Errorf("status = %q, want unhealthy", snap["beacon-stt"].Status)
	}
}

func TestStateSnapshotIsCopy(t *testing.T) {
	s := NewState()
	s.Publish(map[string]domain.HealthRecord{
		"beacon-stt": {ServiceName: "beacon-stt", Status: domain.StatusHealthy},
	})

	snap := s.Snapshot()
	snap["beacon-stt"] = domain.HealthRecord{ServiceName: "beacon-stt", Status: domain.StatusUnhealthy}
	delete(snap, "beacon-stt")

	if got := s.Snapshot()["beacon-stt"].Status; got != domain.StatusHealthy {
		t.Errorf("mutating a snapshot must not touch the state, got %q", got)
	}
}

func TestStateLastTick(t *testing.T) {
	s := NewState()
	if !s.LastTick().IsZero() {
		t.Error("fresh state should have a zero last tick")
	}

	before := time.Now()
	s.Publish(map[string]domain.HealthRecord{})
	if s.LastTick().Before(before) {
		t.Error("publish should stamp the tick time")
	}
}
