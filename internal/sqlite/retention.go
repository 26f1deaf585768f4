package sqlite

import (
	"context"
	"log/slog"
	"time"
)

// StartRetentionJob runs a background loop that removes posts older than
// maxAge and caps the corpus at maxRows, keeping the full-rank-per-request
// design viable. It runs immediately on start and then repeats at the given
// interval, blocking until ctx is cancelled.
func (s *Store) StartRetentionJob(ctx context.Context, logger *slog.Logger, interval, maxAge time.Duration, maxRows int) {
	s.runRetention(ctx, logger, maxAge, maxRows)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runRetention(ctx, logger, maxAge, maxRows)
		}
	}
}

func (s *Store) runRetention(ctx context.Context, logger *slog.Logger, maxAge time.Duration, maxRows int) {
	deleted, err := s.DeleteOldPosts(ctx, maxAge, maxRows)
	if err != nil {
		logger.Error("post retention failed", "error", err)
	} else if deleted > 0 {
		logger.Info("post retention complete", "deleted", deleted)
	}
}
