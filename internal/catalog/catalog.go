package catalog

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
)

// Catalog holds the current set of declared services in memory.
// The reloader is the only writer; reloads replace the whole set.
type Catalog struct {
	mu         sync.RWMutex
	services   map[string]domain.ServiceDescriptor // Name -> descriptor
	order      []string                            // manifest order, for stable listings
	lastReload time.Time
	fallback   bool // true when the current set is the built-in default
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		services: make(map[string]domain.ServiceDescriptor),
	}
}

// Replace swaps in a new descriptor set wholesale.
func (c *Catalog) Replace(services []domain.ServiceDescriptor, fallback bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services = make(map[string]domain.ServiceDescriptor, len(services))
	c.order = make([]string, 0, len(services))
	for _, svc := range services {
		if _, dup := c.services[svc.Name]; dup {
			continue
		}
		c.services[svc.Name] = svc
		c.order = append(c.order, svc.Name)
	}
	c.lastReload = time.Now()
	c.fallback = fallback
}

// Get retrieves a descriptor by name.
func (c *Catalog) Get(name string) (domain.ServiceDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	svc, ok := c.services[name]
	return svc, ok
}

// All returns every descriptor in manifest order.
func (c *Catalog) All() []domain.ServiceDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	services := make([]domain.ServiceDescriptor, 0, len(c.order))
	for _, name := range c.order {
		services = append(services, c.services[name])
	}
	return services
}

// Count returns the number of declared services.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.services)
}

// LastReload returns the timestamp of the last catalog replacement.
func (c *Catalog) LastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastReload
}

// Fallback reports whether the catalog currently holds the built-in defaults.
func (c *Catalog) Fallback() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.fallback
}
