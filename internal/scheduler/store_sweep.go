package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/logger"
	"github.com/MrSnakeDoc/beacon/internal/store/messages"
)

// StoreSweeper periodically removes aged-out entries from the message
// store. The size caps bound memory under load; the sweeper bounds it under
// low traffic, where old entries would otherwise sit below the caps forever.
type StoreSweeper struct {
	store    *messages.Store
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewStoreSweeper creates a new store sweeper.
func NewStoreSweeper(store *messages.Store, log logger.Logger, interval time.Duration) *StoreSweeper {
	return &StoreSweeper{
		store:    store,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (ss *StoreSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(ss.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ss.Sweep()
			case <-ss.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper.
func (ss *StoreSweeper) Stop() {
	close(ss.stopCh)
}

// Sweep drops entries past the store's max age.
func (ss *StoreSweeper) Sweep() {
	removed := ss.store.SweepExpired()
	if removed > 0 {
		ss.logger.Info("swept aged-out messages",
			logger.Int("removed", removed),
			logger.Int("remaining", ss.store.Count()))
	} else {
		ss.logger.Debug("store sweep found nothing to remove")
	}
}
