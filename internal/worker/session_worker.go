package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/service"
	"github.com/reelhouse/movie-catalog/internal/session"
)

// StartActivityWorker registers the activity log handlers.
func StartActivityWorker(activity *service.ActivityService) {
	if activity == nil {
		return
	}
	activity.RegisterHandlers()
}

// StartSessionSweeper drops idle anonymous managers from registry every
// interval until ctx is done. The returned channel closes when it stops.
func StartSessionSweeper(ctx context.Context, registry *session.Registry, interval, maxIdle time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if registry == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := registry.Sweep(maxIdle); n > 0 {
					logger.Debug("session sweep", zap.Int("removed", n), zap.Int("live", registry.Len()))
				}
			}
		}
	}()
	return done
}
