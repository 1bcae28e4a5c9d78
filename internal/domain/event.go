package domain

import (
	"encoding/json"
	"hash/fnv"
	"strconv"
	"time"
)

// Event is one raw bus message as accepted by the ingestion pipeline.
type Event struct {
	// Topic is the hierarchical bus topic, segments separated by "/".
	Topic string `json:"topic"`

	// Payload is the message body, normalized to JSON. Opaque to the proxy.
	Payload json.RawMessage `json:"payload"`

	ReceivedAt time.Time `json:"received_at"`
}

// StoredEvent is an Event held inside the bounded message store.
type StoredEvent struct {
	Event

	ID        string    `json:"id"`
	SizeBytes int       `json:"size_bytes"`
	StoredAt  time.Time `json:"stored_at"`
}

// NewEvent builds an Event from raw bus bytes. Payloads that are not valid
// JSON are wrapped into a JSON string so downstream serialization never fails.
func NewEvent(topic string, payload []byte, receivedAt time.Time) Event {
	return Event{
		Topic:      topic,
		Payload:    normalizePayload(payload),
		ReceivedAt: receivedAt,
	}
}

func normalizePayload(payload []byte) json.RawMessage {
	if json.Valid(payload) {
		return json.RawMessage(payload)
	}
	// Marshal replaces invalid UTF-8 with U+FFFD, so this cannot fail.
	quoted, err := json.Marshal(string(payload))
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(quoted)
}

// MessageID derives a deduplication id from topic, payload and a coarse
// (one second) timestamp bucket, so identical rapid repeats collide to the
// same id. FNV-1a, not cryptographic: collisions across distinct messages
// are tolerated by the debouncer.
func (e Event) MessageID() string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.Topic))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(e.Payload)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.FormatInt(e.ReceivedAt.Unix(), 10)))
	return strconv.FormatUint(h.Sum64(), 16)
}
