package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// DraftPruner deletes drafts untouched since a cutoff
type DraftPruner interface {
	DeleteDraftsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner periodically prunes stale intake drafts
type Cleaner struct {
	drafts   DraftPruner
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker
func NewCleaner(drafts DraftPruner, ttl, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Cleaner{
		drafts:   drafts,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("draft cleanup worker started", "interval", c.interval, "ttl", c.ttl)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("draft cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup removes drafts older than the TTL; a non-positive TTL keeps
// drafts forever
func (c *Cleaner) cleanup(ctx context.Context) int64 {
	if c.ttl <= 0 {
		return 0
	}

	cutoff := c.now().Add(-c.ttl)
	deleted, err := c.drafts.DeleteDraftsOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("failed to prune stale drafts", "error", err, "cutoff", cutoff)
		return 0
	}

	if deleted > 0 {
		slog.Info("stale drafts pruned", "count", deleted, "cutoff", cutoff)
	} else {
		slog.Debug("no stale drafts found")
	}
	return deleted
}
