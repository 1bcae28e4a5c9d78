package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/beacon/internal/bus"
	"github.com/MrSnakeDoc/beacon/internal/catalog"
	"github.com/MrSnakeDoc/beacon/internal/config"
	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/health"
	"github.com/MrSnakeDoc/beacon/internal/httpserver"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/beacon/internal/hub"
	"github.com/MrSnakeDoc/beacon/internal/logger"
	"github.com/MrSnakeDoc/beacon/internal/pipeline"
	"github.com/MrSnakeDoc/beacon/internal/redis"
	"github.com/MrSnakeDoc/beacon/internal/scheduler"
	"github.com/MrSnakeDoc/beacon/internal/store/messages"
	redisstore "github.com/MrSnakeDoc/beacon/internal/store/redis"
	"github.com/MrSnakeDoc/beacon/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	busConn     *bus.MQTTConn
	hub         *hub.Hub
	throttler   *pipeline.Throttler
	poller      *scheduler.HealthPoller
	sweeper     *scheduler.StoreSweeper
	reloader    *scheduler.CatalogReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Core state, each mutated only by its owning component.
	cat := catalog.New()
	healthState := health.NewState()
	healthCache := health.NewCache[domain.HealthRecord](cfg.HealthCacheTTL, health.DefaultSoftSizeLimit)
	prober := health.NewProber(cfg.ProbeTimeout)

	store := messages.New(messages.Options{
		MaxEntries:       cfg.StoreMaxEntries,
		MaxPerTopic:      cfg.StoreMaxPerTopic,
		MaxAge:           cfg.StoreMaxAge,
		CompactThreshold: cfg.StoreCompactThreshold,
	})

	// Broadcast hub: new subscribers get the current health map and the
	// recent message window before any live frame.
	limiter := hub.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxMessages)
	snapshotRecent := cfg.SnapshotRecent
	broadcastHub := hub.New(limiter, func() [][]byte {
		return [][]byte{
			hub.HealthUpdateFrame(healthState.Snapshot()),
			hub.MessageFlowFrame(store.Recent(snapshotRecent)),
		}
	}, loggerClient)

	// Ingestion pipeline: debounce, store, throttle, broadcast.
	throttler := pipeline.NewThrottler(cfg.ThrottleMinInterval, cfg.ThrottleBuffer, func(events []domain.Event) {
		for _, event := range events {
			broadcastHub.Broadcast(hub.EventFrame(event))
		}
	})
	debouncer := pipeline.NewDebouncer(cfg.DebounceWindow)
	pipe := pipeline.New(store, debouncer, throttler, loggerClient)

	busConn := bus.NewMQTT(bus.MQTTOptions{
		BrokerURL: cfg.MQTTBroker,
		ClientID:  cfg.MQTTClientID,
		Topics:    cfg.MQTTTopics,
	}, pipe.HandleBusMessage, loggerClient)

	// Optional redis mirror for the health snapshot.
	var redisClient *goredis.Client
	var mirror *redisstore.Mirror
	if cfg.RedisAddr != "" {
		redisClient = redis.New(redis.ConnectOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, loggerClient)
		mirror = redisstore.NewMirror(redisClient, cfg.RedisSnapshotTTL)
	} else {
		loggerClient.Info("redis mirror not configured, snapshot mirroring disabled")
	}

	poller := scheduler.NewHealthPoller(
		cat,
		healthCache,
		prober,
		busConn,
		healthState,
		mirror,
		func(snapshot map[string]domain.HealthRecord) {
			broadcastHub.Broadcast(hub.HealthUpdateFrame(snapshot))
		},
		loggerClient,
		cfg.PollInterval,
	)

	sweeper := scheduler.NewStoreSweeper(store, loggerClient, cfg.StoreSweepInterval)

	reloadTrigger := make(chan struct{}, 1)
	reloader := scheduler.NewCatalogReloader(
		cfg.ManifestFile,
		cfg.ServicePrefix,
		cat,
		loggerClient,
		cfg.CatalogReloadInterval,
		reloadTrigger,
	)

	d := deps.Deps{
		Logger:              loggerClient,
		StartTime:           time.Now(),
		Version:             version.Version,
		Commit:              version.Commit,
		BuildDate:           version.BuildDate,
		GoVersion:           version.GoVersion,
		Catalog:             cat,
		HealthState:         healthState,
		HealthCache:         healthCache,
		Store:               store,
		Pipeline:            pipe,
		Hub:                 broadcastHub,
		Bus:                 busConn,
		Mirror:              mirror,
		ReloadTrigger:       reloadTrigger,
		SnapshotRecent:      cfg.SnapshotRecent,
		TrustProxy:          cfg.TrustProxy,
		PublishBurst:        cfg.PublishBurst,
		PublishRefillPerMin: cfg.PublishRefillPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		busConn:     busConn,
		hub:         broadcastHub,
		throttler:   throttler,
		poller:      poller,
		sweeper:     sweeper,
		reloader:    reloader,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Beacon v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Beacon %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.hub.Start(ctx)
	a.logger.Info("broadcast hub started")

	// The catalog must exist before the first poll tick.
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start catalog reloader: %w", err)
	}
	a.logger.Info("catalog reloader started",
		logger.Duration("interval", a.cfg.CatalogReloadInterval))

	if err := a.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health poller: %w", err)
	}
	a.logger.Info("health poller started",
		logger.Duration("interval", a.cfg.PollInterval))

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start store sweeper: %w", err)
	}
	a.logger.Info("store sweeper started",
		logger.Duration("interval", a.cfg.StoreSweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.poller.Stop()
	a.sweeper.Stop()
	a.throttler.Stop()
	a.hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.busConn.Close()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		}
	}

	a.logger.Info("✅ Beacon stopped cleanly")
	return nil
}
