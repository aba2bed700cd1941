package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/terra-clan/circular-readiness/internal/assessment"
	"github.com/terra-clan/circular-readiness/internal/metrics"
	"github.com/terra-clan/circular-readiness/internal/models"
)

// SessionSweeper is the part of the assessment manager the cleaner needs
type SessionSweeper interface {
	GetExpired(ctx context.Context) ([]*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Cleaner handles periodic removal of expired assessment sessions
type Cleaner struct {
	manager  SessionSweeper
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(manager SessionSweeper, interval time.Duration) *Cleaner {
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

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep deletes every expired session once and returns how many were removed
func (c *Cleaner) Sweep(ctx context.Context) int {
	slog.Debug("running cleanup cycle")

	expired, err := c.manager.GetExpired(ctx)
	if err != nil {
		slog.Error("failed to get expired sessions", "error", err)
		return 0
	}

	if len(expired) == 0 {
		slog.Debug("no expired sessions found")
		return 0
	}

	slog.Info("found expired sessions", "count", len(expired))

	removed := 0
	for _, s := range expired {
		if err := c.manager.DeleteSession(ctx, s.ID); err != nil {
			// another instance may have swept it already
			if errors.Is(err, assessment.ErrSessionNotFound) {
				continue
			}
			slog.Error("failed to delete expired session", "error", err, "id", s.ID)
			continue
		}

		removed++
		metrics.SessionsExpired.Inc()
		slog.Info("expired session deleted",
			"id", s.ID,
			"product", s.Product,
			"expired_at", s.ExpiresAt,
			"answers", s.Answers.Count(),
		)
	}
	return removed
}
