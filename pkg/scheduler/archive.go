package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobradar/pkg/storage"
)

const (
	archiveActiveAfter = 30 * 24 * time.Hour
	purgeRawAfter      = 90 * 24 * time.Hour
)

// ArchiveAndPurgeResult is spec.md §4.9's "{archived, purged}".
type ArchiveAndPurgeResult struct {
	Archived int64
	Purged   int64
}

// ArchiveAndPurge marks active canonical jobs older than 30 days archived
// and deletes raw jobs older than 90 days, as one transaction per spec.md
// §4.9. It is exported so the CLI's archive-old-jobs subcommand can
// invoke it directly outside the cron loop.
func ArchiveAndPurge(ctx context.Context, store storage.Store) (ArchiveAndPurgeResult, error) {
	var result ArchiveAndPurgeResult
	now := time.Now()

	err := store.Transact(ctx, func(tx storage.Store) error {
		archived, err := tx.ArchiveOlderThan(ctx, now.Add(-archiveActiveAfter))
		if err != nil {
			return err
		}
		purged, err := tx.DeleteRawJobsOlderThan(ctx, now.Add(-purgeRawAfter))
		if err != nil {
			return err
		}
		result = ArchiveAndPurgeResult{Archived: archived, Purged: purged}
		return nil
	})
	return result, err
}

func (s *Scheduler) runArchiveAndPurge(ctx context.Context) {
	if s.deps.Store == nil {
		return
	}
	result, err := ArchiveAndPurge(ctx, s.deps.Store)
	if err != nil {
		s.deps.Log.Error("scheduler: archive and purge failed", zap.Error(err))
		return
	}
	s.deps.Log.Info("scheduler: archive and purge finished",
		zap.Int64("archived", result.Archived),
		zap.Int64("purged", result.Purged))
}
