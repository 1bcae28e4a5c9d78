package manifest

import "github.com/MrSnakeDoc/beacon/internal/domain"

// DefaultCatalog is the built-in fallback used when the manifest is missing
// or wholly malformed: the broker liveness entry plus the five well-known
// beacon services on their fixed ports. Availability over completeness.
func DefaultCatalog() []domain.ServiceDescriptor {
	return []domain.ServiceDescriptor{
		{Name: "mqtt-broker", Host: "localhost", Port: 1883, Kind: domain.KindBrokerLiveness},
		{Name: "beacon-stt", Host: "localhost", Port: 10300, Kind: domain.KindProbeHTTP, HealthPath: "/health"},
		{Name: "beacon-tts", Host: "localhost", Port: 10200, Kind: domain.KindProbeHTTP, HealthPath: "/health"},
		{Name: "beacon-wake", Host: "localhost", Port: 10400, Kind: domain.KindProbeHTTP, HealthPath: "/health"},
		{Name: "beacon-intent", Host: "localhost", Port: 10500, Kind: domain.KindProbeHTTP, HealthPath: "/health"},
		{Name: "beacon-gateway", Host: "localhost", Port: 8181, Kind: domain.KindProbeHTTP, HealthPath: "/health"},
	}
}
