package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/catalog"
	"github.com/MrSnakeDoc/beacon/internal/logger"
	"github.com/MrSnakeDoc/beacon/internal/sources/manifest"
)

// CatalogReloader keeps the service catalog in sync with the manifest file:
// an immediate load on start, a periodic refresh, and a manual trigger
// channel wired to the reload endpoint.
type CatalogReloader struct {
	loader        *manifest.Loader
	mapper        *manifest.Mapper
	catalog       *catalog.Catalog
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewCatalogReloader creates a new catalog reloader.
func NewCatalogReloader(
	manifestFile string,
	servicePrefix string,
	cat *catalog.Catalog,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CatalogReloader {
	return &CatalogReloader{
		loader:        manifest.NewLoader(manifestFile),
		mapper:        manifest.NewMapper(servicePrefix, log),
		catalog:       cat,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the catalog immediately, then refreshes on the interval and
// on manual triggers. A broken manifest is never fatal; the reloader falls
// back to the built-in defaults.
func (cr *CatalogReloader) Start(ctx context.Context) error {
	cr.Reload()

	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cr.Reload()
			case <-cr.manualTrigger:
				cr.logger.Info("manual catalog reload triggered")
				cr.Reload()
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader.
func (cr *CatalogReloader) Stop() {
	close(cr.stopCh)
}

// Reload parses the manifest and replaces the catalog wholesale.
// Availability over completeness: a missing, malformed or empty manifest
// swaps in the default catalog instead of leaving the proxy with nothing
// to poll.
func (cr *CatalogReloader) Reload() {
	file, err := cr.loader.Load()
	if err != nil {
		cr.logger.Warn("manifest unreadable, using default catalog",
			logger.Error(err))
		cr.catalog.Replace(manifest.DefaultCatalog(), true)
		return
	}

	services := cr.mapper.Map(file)
	if len(services) == 0 {
		cr.logger.Warn("manifest contained no usable services, using default catalog")
		cr.catalog.Replace(manifest.DefaultCatalog(), true)
		return
	}

	cr.catalog.Replace(services, false)
	cr.logger.Info("catalog reloaded",
		logger.Int("services", len(services)))
}
