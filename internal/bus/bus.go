package bus

import "errors"

// ErrNotConnected is returned by Publish while the broker link is down.
// Callers fail fast instead of queueing: the proxy is not a durable broker.
var ErrNotConnected = errors.New("bus: not connected")

// MessageHandler receives every raw message arriving on a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Conn is the bus surface the proxy depends on. The concrete transport is
// MQTT; tests substitute an in-memory fake.
type Conn interface {
	// IsConnected reports the live state of the broker link. Used both to
	// gate publishes and as the health source for broker-liveness services.
	IsConnected() bool

	// Publish forwards one message to the bus. Returns ErrNotConnected
	// while the link is down.
	Publish(topic string, payload []byte) error

	// Close tears the connection down. Best effort, idempotent.
	Close()
}
