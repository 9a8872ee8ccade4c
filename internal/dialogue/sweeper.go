package dialogue

import (
	"context"
	"log/slog"
	"time"
)

// StartSweeper runs a background goroutine that periodically drops
// dialogues abandoned for longer than maxIdle, so a user who walks away
// mid-dialogue comes back to idle. It stops when ctx is done.
func StartSweeper(ctx context.Context, reg *Registry, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Dialogue sweeper started", "interval", interval, "max_idle", maxIdle)

		for {
			select {
			case <-ticker.C:
				if dropped := reg.Sweep(maxIdle); dropped > 0 {
					slog.Info("Dialogue sweeper reset abandoned dialogues", "count", dropped)
				}
			case <-ctx.Done():
				slog.Info("Dialogue sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
