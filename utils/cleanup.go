package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StagingSweeper removes staging files older than a cutoff.
type StagingSweeper interface {
	RemoveStaleStaging(cutoff time.Time) (int, error)
}

// StartUploadCleaner periodically deletes staging files older than ttl.
// They only exist when the process died mid-upload or a rejected upload
// could not be removed. It returns when ctx is cancelled.
func StartUploadCleaner(ctx context.Context, sweeper StagingSweeper, interval, ttl time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			SweepOnce(sweeper, ttl, time.Now(), log)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// SweepOnce runs a single cleanup pass and logs the outcome.
func SweepOnce(sweeper StagingSweeper, ttl time.Duration, now time.Time, log *zap.Logger) int {
	n, err := sweeper.RemoveStaleStaging(now.Add(-ttl))
	if err != nil {
		log.Warn("upload cleaner failed", zap.Error(err))
	}
	if n > 0 {
		log.Info("upload cleaner removed stale staging files", zap.Int("count", n))
	}
	return n
}
