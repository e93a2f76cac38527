package background

import (
	"context"
	"log/slog"
	"time"
)

// LockPurger removes account locks whose window has passed
type LockPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SweepManager periodically purges expired account locks from storage.
// Expired locks are already invisible to reads; the sweep keeps the store
// from accumulating rows for identities that never come back.
type SweepManager struct {
	locks    LockPurger
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSweepManager creates a new sweep manager
func NewSweepManager(locks LockPurger, logger *slog.Logger, interval time.Duration) *SweepManager {
	return &SweepManager{
		locks:    locks,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep task
func (sm *SweepManager) Start(ctx context.Context) {
	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	sm.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			sm.runSweep(ctx)
		case <-sm.stopCh:
			sm.logger.Info("lock sweep manager stopped")
			return
		case <-ctx.Done():
			sm.logger.Info("lock sweep manager context cancelled")
			return
		}
	}
}

// runSweep removes expired account locks from storage
func (sm *SweepManager) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	purged, err := sm.locks.DeleteExpired(sweepCtx)
	if err != nil {
		sm.logger.Error("failed to purge expired locks", slog.Any("error", err))
		return
	}

	if purged > 0 {
		sm.logger.Info("expired lock sweep completed", slog.Int64("locks_purged", purged))
	}
}

// Stop signals the sweep manager to stop
func (sm *SweepManager) Stop() {
	close(sm.stopCh)
}
