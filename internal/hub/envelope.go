package hub

import (
	"encoding/json"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
)

// Server-to-client message types on the live channel.
const (
	TypeHealthUpdate = "health_update"
	TypeMessageFlow  = "message_flow"
	TypeMQTTMessage  = "mqtt_message"
	TypeRateLimited  = "rate_limited"
)

type healthUpdateEnvelope struct {
	Type      string                         `json:"type"`
	Timestamp time.Time                      `json:"timestamp"`
	Services  map[string]domain.HealthRecord `json:"services"`
}

type messageFlowEnvelope struct {
	Type     string               `json:"type"`
	Messages []domain.StoredEvent `json:"messages"`
}

type mqttMessageEnvelope struct {
	Type    string       `json:"type"`
	Message domain.Event `json:"message"`
}

type rateLimitedEnvelope struct {
	Type         string `json:"type"`
	RetryAfterMS int64  `json:"retry_after_ms"`
}

// HealthUpdateFrame marshals a full health map broadcast.
func HealthUpdateFrame(services map[string]domain.HealthRecord) []byte {
	return mustMarshal(healthUpdateEnvelope{
		Type:      TypeHealthUpdate,
		Timestamp: time.Now(),
		Services:  services,
	})
}

// MessageFlowFrame marshals the recent-history snapshot sent on connect.
func MessageFlowFrame(events []domain.StoredEvent) []byte {
	if events == nil {
		events = []domain.StoredEvent{}
	}
	return mustMarshal(messageFlowEnvelope{
		Type:     TypeMessageFlow,
		Messages: events,
	})
}

// EventFrame marshals one live pipeline event.
func EventFrame(event domain.Event) []byte {
	return mustMarshal(mqttMessageEnvelope{
		Type:    TypeMQTTMessage,
		Message: event,
	})
}

// RateLimitedFrame marshals the one-shot rate limit notice.
func RateLimitedFrame(retryAfter time.Duration) []byte {
	return mustMarshal(rateLimitedEnvelope{
		Type:         TypeRateLimited,
		RetryAfterMS: retryAfter.Milliseconds(),
	})
}

// mustMarshal: all envelope fields marshal cleanly by construction, and a
// broadcast frame that cannot be built is a programming error.
func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
