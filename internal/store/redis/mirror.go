package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/beacon/internal/domain"
)

// Mirror publishes the latest health snapshot to redis, best effort, so
// external dashboards can read it without hitting the proxy. The in-memory
// state remains the source of truth; a failed write is a warning, never an
// error up the stack. Only the current snapshot is mirrored, never message
// history.
type Mirror struct {
	client *redis.Client
	ttl    time.Duration
}

type snapshotPayload struct {
	Timestamp time.Time                      `json:"timestamp"`
	Services  map[string]domain.HealthRecord `json:"services"`
}

// NewMirror creates a mirror writing snapshots with the given TTL.
func NewMirror(client *redis.Client, ttl time.Duration) *Mirror {
	return &Mirror{
		client: client,
		ttl:    ttl,
	}
}

// SaveSnapshot overwrites the mirrored health map.
func (m *Mirror) SaveSnapshot(ctx context.Context, services map[string]domain.HealthRecord) error {
	data, err := json.Marshal(snapshotPayload{
		Timestamp: time.Now(),
		Services:  services,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal health snapshot: %w", err)
	}

	if err := m.client.Set(ctx, KeyHealthSnapshot, data, m.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write health snapshot: %w", err)
	}
	return nil
}

// Ping checks the mirror connection, for the component status endpoint.
func (m *Mirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}
