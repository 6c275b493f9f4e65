package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/trupyai/trupy/internal/store"
)

// StartSweeper runs a background goroutine that periodically counts live
// sessions for observability. It is strictly read-only: it never mutates or
// deletes sessions, and listing failures are logged without affecting
// request serving. Stops when ctx is done.
func StartSweeper(ctx context.Context, st store.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("session sweeper started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				ids, err := st.LiveIDs(ctx)
				if err != nil {
					slog.Error("session sweeper failed to list live sessions", "error", err)
					continue
				}
				slog.Info("session sweep", "active_sessions", len(ids))
			case <-ctx.Done():
				slog.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
