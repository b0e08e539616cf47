package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/casequest/coach-engine/internal/session"
)

// Cleaner handles periodic removal of idle practice sessions
type Cleaner struct {
	manager  *session.Manager
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(manager *session.Manager, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		manager:  manager,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes sessions idle past the TTL
func (c *Cleaner) cleanup() {
	slog.Debug("running cleanup cycle")

	removed := c.manager.CleanupExpired()
	if removed == 0 {
		slog.Debug("no expired sessions found")
		return
	}

	slog.Info("expired sessions removed", "count", removed, "remaining", c.manager.Len())
}
