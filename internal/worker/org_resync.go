package worker

import (
	"context"
	"log"
	"time"

	"github.com/ignite/workbooks-sync/internal/pkg/distlock"
)

// =============================================================================
// ORGANISATION RESYNC WORKER — Daily Bulk Refresh of the Organisation Cache
// =============================================================================
// Request-time lookups only upsert organisations they happen to touch; names
// renamed or deleted on the remote side would otherwise go stale forever. This
// worker replaces the whole local cache from a paginated remote fetch, then
// regenerates the autocomplete snapshot.
//
// A distributed lock guards the cycle so two service instances never run the
// wholesale table replacement at the same time.

// DefaultResyncInterval is how often the full resync runs.
const DefaultResyncInterval = 24 * time.Hour

// Resyncer runs the full paginated organisation resync.
type Resyncer interface {
	ResyncAll(ctx context.Context) (int, error)
}

// OrgResyncWorker periodically rebuilds the local organisation cache.
type OrgResyncWorker struct {
	resyncer Resyncer
	lock     distlock.DistLock
	interval time.Duration
}

// NewOrgResyncWorker creates a resync worker. lock may be nil in single
// instance deployments.
func NewOrgResyncWorker(resyncer Resyncer, lock distlock.DistLock, interval time.Duration) *OrgResyncWorker {
	if interval <= 0 {
		interval = DefaultResyncInterval
	}
	return &OrgResyncWorker{
		resyncer: resyncer,
		lock:     lock,
		interval: interval,
	}
}

// Start begins the resync loop. It blocks until ctx is cancelled.
func (w *OrgResyncWorker) Start(ctx context.Context) {
	log.Printf("[OrgResync] Starting (interval=%s)", w.interval)

	// Run once immediately on start
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OrgResync] Stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single lock-guarded resync cycle.
func (w *OrgResyncWorker) RunOnce(ctx context.Context) {
	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx)
		if err != nil {
			log.Printf("[OrgResync] Lock acquire failed: %v", err)
			return
		}
		if !acquired {
			log.Println("[OrgResync] Another instance holds the lock, skipping cycle")
			return
		}
		defer func() {
			if err := w.lock.Release(ctx); err != nil {
				log.Printf("[OrgResync] Lock release failed: %v", err)
			}
		}()
	}

	start := time.Now()
	log.Println("[OrgResync] Resync cycle starting...")

	count, err := w.resyncer.ResyncAll(ctx)
	if err != nil {
		log.Printf("[OrgResync] Resync failed: %v", err)
		return
	}

	log.Printf("[OrgResync] Resynced %d organisations in %s", count, time.Since(start).Round(time.Millisecond))
}
