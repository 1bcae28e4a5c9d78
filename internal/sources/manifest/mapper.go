package manifest

import (
	"strings"

	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/logger"
)

// Mapper converts manifest entries to domain.ServiceDescriptor values.
//
// Entries whose name lacks the reserved prefix are ignored (the manifest may
// declare services that belong to other tenants of the same file); broker
// entries are matched by kind instead. Entries without a resolvable port are
// dropped with a warning, never a fatal error.
type Mapper struct {
	prefix string
	logger logger.Logger
}

// NewMapper creates a new mapper instance.
func NewMapper(prefix string, log logger.Logger) *Mapper {
	return &Mapper{
		prefix: prefix,
		logger: log,
	}
}

// Map converts a parsed manifest File to a slice of descriptors.
func (m *Mapper) Map(f File) []domain.ServiceDescriptor {
	var services []domain.ServiceDescriptor

	for _, entry := range f.Services {
		if entry.Name == "" {
			m.logger.Warn("skipping manifest entry without a name")
			continue
		}

		kind := mapKind(entry.Kind)

		// Only entries carrying the reserved prefix belong to this proxy.
		// Broker liveness entries are identified by kind, not name.
		if kind != domain.KindBrokerLiveness && !strings.HasPrefix(entry.Name, m.prefix) {
			continue
		}

		if entry.Port <= 0 || entry.Port > 65535 {
			m.logger.Warn("dropping manifest entry without a resolvable port",
				logger.String("service", entry.Name),
				logger.Int("port", entry.Port))
			continue
		}

		host := entry.Host
		if host == "" {
			host = "localhost"
		}

		services = append(services, domain.ServiceDescriptor{
			Name:       entry.Name,
			Host:       host,
			Port:       entry.Port,
			Kind:       kind,
			HealthPath: entry.HealthPath,
		})
	}

	return services
}

func mapKind(kind string) domain.ServiceKind {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "broker", "broker-liveness":
		return domain.KindBrokerLiveness
	default:
		return domain.KindProbeHTTP
	}
}
