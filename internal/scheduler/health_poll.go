package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/bus"
	"github.com/MrSnakeDoc/beacon/internal/catalog"
	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/health"
	"github.com/MrSnakeDoc/beacon/internal/logger"
	redisstore "github.com/MrSnakeDoc/beacon/internal/store/redis"
)

// HealthPoller probes every cataloged service on a fixed interval, through
// the TTL cache so that a service costs at most one real network call per
// TTL window. It is the sole writer of the aggregate health state.
type HealthPoller struct {
	catalog *catalog.Catalog
	cache   *health.Cache[domain.HealthRecord]
	prober  *health.Prober
	bus     bus.Conn
	state   *health.State
	mirror  *redisstore.Mirror
	logger  logger.Logger

	// notify receives the full map after every tick, for hub broadcast.
	// May be nil.
	notify func(map[string]domain.HealthRecord)

	interval time.Duration
	stopCh   chan struct{}
}

// NewHealthPoller creates a poller. busConn and mirror may be nil; notify
// may be nil.
func NewHealthPoller(
	cat *catalog.Catalog,
	cache *health.Cache[domain.HealthRecord],
	prober *health.Prober,
	busConn bus.Conn,
	state *health.State,
	mirror *redisstore.Mirror,
	notify func(map[string]domain.HealthRecord),
	log logger.Logger,
	interval time.Duration,
) *HealthPoller {
	return &HealthPoller{
		catalog:  cat,
		cache:    cache,
		prober:   prober,
		bus:      busConn,
		state:    state,
		mirror:   mirror,
		notify:   notify,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one tick immediately, then polls on the interval.
func (hp *HealthPoller) Start(ctx context.Context) error {
	hp.Tick(ctx)

	ticker := time.NewTicker(hp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hp.Tick(ctx)
			case <-hp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the poller.
func (hp *HealthPoller) Stop() {
	close(hp.stopCh)
}

// Tick probes every cataloged service once and publishes the full health
// map as a replacement, never a partial merge. Cache misses probe
// concurrently, each with its own timeout, so one unresponsive service
// cannot delay the rest of the cycle.
func (hp *HealthPoller) Tick(ctx context.Context) {
	services := hp.catalog.All()
	results := make([]domain.HealthRecord, len(services))

	var wg sync.WaitGroup
	for i, svc := range services {
		if cached, ok := hp.cache.Get(svc.Name); ok {
			results[i] = cached
			continue
		}

		if svc.Kind == domain.KindBrokerLiveness {
			record := hp.brokerRecord(svc)
			hp.cache.Set(svc.Name, record)
			results[i] = record
			continue
		}

		wg.Add(1)
		go func(i int, svc domain.ServiceDescriptor) {
			defer wg.Done()
			record := hp.prober.Probe(ctx, svc)
			hp.cache.Set(svc.Name, record)
			results[i] = record
		}(i, svc)
	}
	wg.Wait()

	snapshot := make(map[string]domain.HealthRecord, len(results))
	unhealthy := 0
	for _, record := range results {
		snapshot[record.ServiceName] = record
		if record.Status != domain.StatusHealthy {
			unhealthy++
		}
	}

	hp.state.Publish(snapshot)
	if hp.notify != nil {
		hp.notify(snapshot)
	}

	// Best effort: the in-memory state is the source of truth, the mirror
	// only feeds external dashboards.
	if hp.mirror != nil {
		if err := hp.mirror.SaveSnapshot(ctx, snapshot); err != nil {
			hp.logger.Warn("failed to mirror health snapshot to redis",
				logger.Error(err))
		}
	}

	hp.logger.Debug("health poll tick completed",
		logger.Int("services", len(services)),
		logger.Int("unhealthy", unhealthy))
}

// brokerRecord reads liveness straight from the bus connection state;
// broker entries are never probed over HTTP.
func (hp *HealthPoller) brokerRecord(svc domain.ServiceDescriptor) domain.HealthRecord {
	record := domain.HealthRecord{
		ServiceName: svc.Name,
		Status:      domain.StatusUnhealthy,
		Timestamp:   time.Now(),
		Detail:      "bus disconnected",
	}
	if hp.bus != nil && hp.bus.IsConnected() {
		record.Status = domain.StatusHealthy
		record.Detail = "bus connected"
	}
	return record
}
