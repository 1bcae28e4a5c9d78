package deps

import (
	"time"

	"github.com/MrSnakeDoc/beacon/internal/bus"
	"github.com/MrSnakeDoc/beacon/internal/catalog"
	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/health"
	"github.com/MrSnakeDoc/beacon/internal/hub"
	"github.com/MrSnakeDoc/beacon/internal/logger"
	"github.com/MrSnakeDoc/beacon/internal/pipeline"
	"github.com/MrSnakeDoc/beacon/internal/store/messages"
	redisstore "github.com/MrSnakeDoc/beacon/internal/store/redis"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Catalog     *catalog.Catalog                    // current service descriptors
	HealthState *health.State                       // latest aggregate health map
	HealthCache *health.Cache[domain.HealthRecord]  // probe cache, counters only
	Store       *messages.Store                     // bounded recent-message window
	Pipeline    *pipeline.Pipeline                  // ingestion counters
	Hub         *hub.Hub                            // live subscriber hub
	Bus         bus.Conn                            // broker link (may be nil in tests)
	Mirror      *redisstore.Mirror                  // optional health snapshot mirror

	ReloadTrigger  chan struct{} // channel to trigger manual catalog reload
	SnapshotRecent int           // events included in the connect snapshot
	TrustProxy     bool          // honor proxy headers for client IPs

	PublishBurst        int // token bucket burst for the publish endpoint
	PublishRefillPerMin int // token refill rate for the publish endpoint
}
