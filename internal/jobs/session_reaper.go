// Package jobs contains background maintenance jobs. Each job runs on its own
// ticker goroutine and is stopped during graceful shutdown.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/lagden-dev/ldev-api/internal/db/repositories"
	"github.com/lagden-dev/ldev-api/internal/safego"
	"github.com/lagden-dev/ldev-api/internal/telemetry"
)

// SessionReaper periodically deletes expired sessions. Expired sessions are
// already rejected at authentication time; the reaper just keeps the table
// from growing without bound.
type SessionReaper struct {
	sessionRepo *repositories.SessionRepository
	interval    time.Duration
	stop        chan struct{}
	done        chan struct{}
}

// NewSessionReaper creates a new SessionReaper
func NewSessionReaper(sessionRepo *repositories.SessionRepository, interval time.Duration) *SessionReaper {
	return &SessionReaper{
		sessionRepo: sessionRepo,
		interval:    interval,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the reaper goroutine. The first sweep runs immediately so a
// restart after downtime does not wait a full interval.
func (r *SessionReaper) Start(ctx context.Context) {
	safego.Go(func() {
		defer close(r.done)

		r.sweep(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.sweep(ctx)
			case <-r.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	})
}

// Stop signals the reaper to exit and waits for the goroutine to finish.
func (r *SessionReaper) Stop() {
	close(r.stop)
	<-r.done
}

func (r *SessionReaper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	deleted, err := r.sessionRepo.DeleteExpiredSessions(sweepCtx)
	if err != nil {
		slog.Error("session sweep failed", "error", err)
		return
	}

	if deleted > 0 {
		telemetry.SessionsReapedTotal.Add(float64(deleted))
		slog.Info("expired sessions deleted", "count", deleted)
	}
}
