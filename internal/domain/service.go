package domain

import (
	"fmt"
	"time"
)

// ServiceKind discriminates how a service's health is determined.
type ServiceKind string

const (
	// KindProbeHTTP services are probed with an HTTP GET against HealthPath.
	KindProbeHTTP ServiceKind = "probe-over-http"

	// KindBrokerLiveness services are never probed over the network;
	// their health is read from the live bus connection state.
	KindBrokerLiveness ServiceKind = "broker-liveness"
)

// ServiceDescriptor describes one declared service from the manifest.
//
// A descriptor is immutable once loaded. Reloads replace the whole catalog;
// individual descriptors are never mutated field by field.
//
// A ServiceDescriptor is uniquely identified by its Name.
type ServiceDescriptor struct {
	// Name is the canonical unique identifier, e.g. "beacon-stt".
	Name string

	// Host and Port locate the service endpoint.
	Host string
	Port int

	// Kind selects the probing strategy.
	Kind ServiceKind

	// HealthPath is the HTTP path probed for KindProbeHTTP services.
	// Empty for broker-liveness entries.
	HealthPath string
}

// ProbeURL returns the full health endpoint URL for HTTP-probed services.
func (s ServiceDescriptor) ProbeURL() string {
	path := s.HealthPath
	if path == "" {
		path = "/health"
	}
	return fmt.Sprintf("http://%s:%d%s", s.Host, s.Port, path)
}

// HealthStatus is the result classification of a probe.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusUnknown   HealthStatus = "unknown"
)

// HealthRecord is the outcome of probing one service. One live record exists
// per service; each poll cycle supersedes the previous record wholesale.
type HealthRecord struct {
	ServiceName  string       `json:"service"`
	Status       HealthStatus `json:"status"`
	Timestamp    time.Time    `json:"timestamp"`
	LatencyMilli *int64       `json:"latency_ms,omitempty"`

	// Detail carries the service's own health payload on success, or the
	// failure reason as a string on error. Opaque to the proxy.
	Detail any `json:"detail,omitempty"`
}
