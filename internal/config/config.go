package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	ManifestFile          string        // path to the service manifest yaml
	ServicePrefix         string        // reserved name prefix for catalog entries
	CatalogReloadInterval time.Duration // interval to reload the manifest

	PollInterval   time.Duration // health poll tick (default 10s)
	HealthCacheTTL time.Duration // health cache TTL (default 30s)
	ProbeTimeout   time.Duration // per-probe timeout (default 5s)

	DebounceWindow      time.Duration // identical-repeat suppression window
	ThrottleMinInterval time.Duration // min interval between broadcasts
	ThrottleBuffer      int           // buffered events awaiting batch flush

	StoreMaxEntries       int           // global message window cap
	StoreMaxPerTopic      int           // per-topic retained count
	StoreMaxAge           time.Duration // sweep horizon
	StoreSweepInterval    time.Duration // background sweep interval
	StoreCompactThreshold int           // payload bytes before compaction

	RateLimitWindow      time.Duration // per-client rate window
	RateLimitMaxMessages int           // inbound messages per window
	SnapshotRecent       int           // events sent in the connect snapshot

	MQTTBroker   string   // ex: "tcp://localhost:1883"
	MQTTClientID string   // bus client id
	MQTTTopics   []string // subscription filters

	// Redis mirror (optional; empty addr disables it)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisSnapshotTTL time.Duration

	// HTTP-level rate limit on the publish endpoint
	PublishBurst        int
	PublishRefillPerMin int
	TrustProxy          bool
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BEACON_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BEACON_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BEACON_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BEACON_PRETTY_LOG", true),

		// Catalog
		ManifestFile:          getenv("BEACON_SERVICE_FILE", "/app/services.yaml"),
		ServicePrefix:         getenv("BEACON_SERVICE_PREFIX", "beacon-"),
		CatalogReloadInterval: mustDuration("BEACON_CATALOG_RELOAD_INTERVAL", 5*time.Minute),

		// Health polling
		PollInterval:   msDuration("BEACON_POLL_INTERVAL_MS", 10*time.Second),
		HealthCacheTTL: msDuration("BEACON_HEALTH_CACHE_TTL_MS", 30*time.Second),
		ProbeTimeout:   msDuration("BEACON_PROBE_TIMEOUT_MS", 5*time.Second),

		// Ingestion pipeline
		DebounceWindow:      msDuration("BEACON_DEBOUNCE_WINDOW_MS", 500*time.Millisecond),
		ThrottleMinInterval: msDuration("BEACON_THROTTLE_MIN_INTERVAL_MS", 100*time.Millisecond),
		ThrottleBuffer:      getenvInt("BEACON_THROTTLE_BUFFER", 50),

		// Message store
		StoreMaxEntries:       getenvInt("BEACON_STORE_MAX_ENTRIES", 1000),
		StoreMaxPerTopic:      getenvInt("BEACON_STORE_MAX_PER_TOPIC", 100),
		StoreMaxAge:           msDuration("BEACON_STORE_MAX_AGE_MS", time.Hour),
		StoreSweepInterval:    msDuration("BEACON_STORE_SWEEP_INTERVAL_MS", 5*time.Minute),
		StoreCompactThreshold: getenvInt("BEACON_STORE_COMPACT_THRESHOLD", 1000),

		// Subscribers
		RateLimitWindow:      msDuration("BEACON_RATE_LIMIT_WINDOW_MS", time.Minute),
		RateLimitMaxMessages: getenvInt("BEACON_RATE_LIMIT_MAX_MESSAGES", 100),
		SnapshotRecent:       getenvInt("BEACON_SNAPSHOT_RECENT", 100),

		// Bus
		MQTTBroker:   getenv("BEACON_MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getenv("BEACON_MQTT_CLIENT_ID", "beacon-proxy"),
		MQTTTopics:   splitAndTrim(getenv("BEACON_MQTT_TOPICS", "#")),

		// Redis mirror
		RedisAddr:        getenv("BEACON_REDIS_ADDR", ""),
		RedisPassword:    getenv("BEACON_REDIS_PASSWORD", ""),
		RedisDB:          getenvInt("BEACON_REDIS_DB", 0),
		RedisSnapshotTTL: msDuration("BEACON_REDIS_SNAPSHOT_TTL_MS", 2*time.Minute),

		// Publish endpoint rate limit
		PublishBurst:        getenvInt("BEACON_PUBLISH_BURST", 10),
		PublishRefillPerMin: getenvInt("BEACON_PUBLISH_REFILL_PER_MIN", 60),
		TrustProxy:          mustBool("BEACON_TRUST_PROXY", false),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// msDuration reads an integer number of milliseconds. The *_MS options
// match how the deployment's other services express their intervals.
func msDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
