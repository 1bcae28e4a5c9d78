package pipeline

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/logger"
	"github.com/MrSnakeDoc/beacon/internal/store/messages"
)

// controlTopicPrefix marks control-plane events that must reach subscribers
// immediately, bypassing the throttler.
const controlTopicPrefix = "beacon/control/"

// Stats are the pipeline's cumulative counters.
type Stats struct {
	Received  int64 `json:"received"`
	Accepted  int64 `json:"accepted"`
	Debounced int64 `json:"debounced"`
	Dropped   int64 `json:"throttle_dropped"`
}

// Pipeline is the ingestion path for raw bus events: debounce, store,
// throttle, broadcast. It is the sole writer of the message store.
type Pipeline struct {
	debouncer *Debouncer
	throttler *Throttler
	store     *messages.Store
	logger    logger.Logger

	received int64
	accepted int64
}

// New wires the pipeline stages together.
func New(store *messages.Store, debouncer *Debouncer, throttler *Throttler, log logger.Logger) *Pipeline {
	return &Pipeline{
		debouncer: debouncer,
		throttler: throttler,
		store:     store,
		logger:    log,
	}
}

// HandleBusMessage ingests one raw bus message. Registered as the bus
// connection's message handler; runs on the bus client's delivery
// goroutines, so every stage is safe for concurrent use.
func (p *Pipeline) HandleBusMessage(topic string, payload []byte) {
	atomic.AddInt64(&p.received, 1)

	event := domain.NewEvent(topic, payload, time.Now())

	if !p.debouncer.ShouldAccept(event) {
		p.logger.Debug("debounced duplicate event",
			logger.String("topic", topic))
		return
	}

	atomic.AddInt64(&p.accepted, 1)
	p.store.Store(event)

	if strings.HasPrefix(topic, controlTopicPrefix) {
		p.throttler.ForceBroadcast(event)
		return
	}
	p.throttler.TryBroadcast(event)
}

// Stats returns the pipeline's cumulative counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Received:  atomic.LoadInt64(&p.received),
		Accepted:  atomic.LoadInt64(&p.accepted),
		Debounced: p.debouncer.Rejected(),
		Dropped:   p.throttler.Dropped(),
	}
}
