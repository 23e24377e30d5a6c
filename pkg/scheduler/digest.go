package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobradar/pkg/models"
	"jobradar/pkg/notifier"
	"jobradar/pkg/storage"
)

// DigestOptions configures one digest send.
type DigestOptions struct {
	Period   string // "morning" | "evening" | "weekly"
	Lookback time.Duration
	ForceAll bool // spec.md §6's `digest ... --force-all`: include every status, not just active
	Limit    int
}

// SendDigest implements the digest-rendering step shared by C9's two daily
// slots and the CLI's `digest` subcommand: every job first seen within
// Lookback, best band first, one Telegram message. Exported (unlike the
// rest of the scheduler's slot bodies) so the CLI can invoke the identical
// logic outside the cron loop, matching how ArchiveAndPurge is exposed in
// archive.go.
func SendDigest(ctx context.Context, store storage.Store, notif notifier.Notifier, opts DigestOptions, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Limit <= 0 {
		opts.Limit = 200
	}

	since := time.Now().Add(-opts.Lookback)
	filter := storage.JobFilter{Since: &since, Limit: opts.Limit}
	if !opts.ForceAll {
		filter.Status = string(models.StatusActive)
	}

	jobs, err := store.ListJobs(ctx, filter)
	if err != nil {
		return err
	}

	if opts.Period == "weekly" {
		if summary, err := store.WeeklySummary(ctx); err != nil {
			log.Error("scheduler: weekly summary lookup failed", zap.Error(err))
		} else {
			log.Info("scheduler: weekly summary",
				zap.Int("totalFound", summary.TotalFound),
				zap.Int("totalNew", summary.TotalNew),
				zap.Int("totalDuplicate", summary.TotalDuplicate))
		}
	}

	return notif.SendDigest(ctx, opts.Period, jobs)
}

// runDigest wires the ticker-driven slots (morning/evening/weekly) to
// SendDigest with this scheduler's own Deps.
func (s *Scheduler) runDigest(ctx context.Context, period string, lookback time.Duration) {
	if s.deps.Notifier == nil || s.deps.Store == nil {
		return
	}
	if err := SendDigest(ctx, s.deps.Store, s.deps.Notifier, DigestOptions{Period: period, Lookback: lookback}, s.deps.Log); err != nil {
		s.deps.Log.Error("scheduler: send digest failed", zap.String("period", period), zap.Error(err))
	}
}
