// Package notifier implements the alert/digest/system-alert hand-off
// (spec.md §4.8 step 8, §4.10's "the notifier owns RetryQueueItem"): two
// separate Telegram bots (jobs vs logs), with transient-failure delivery
// retried via a Postgres-backed queue. No Telegram SDK exists anywhere in
// the retrieval pack, so the bot client is a small *http.Client wrapper
// around the bot API's sendMessage endpoint (stdlib-justified: see
// DESIGN.md).
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobradar/pkg/metrics"
	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

// Notifier is the contract the pipeline orchestrator (C8) and scheduler
// (C9) hand alerts, digests, and system alerts to.
type Notifier interface {
	SendAlert(ctx context.Context, job *models.CanonicalJob, fit *models.FitAnalysis) error
	SendDigest(ctx context.Context, period string, jobs []models.CanonicalJob) error
	SendSystemAlert(ctx context.Context, message string) error
}

// TelegramNotifier sends alerts to the "jobs" bot and system alerts to the
// "logs" bot, per spec.md §6 ("notifier tokens (two separate bots: jobs
// vs. logs)"). Transient failures enqueue to RetryQueueStore rather than
// blocking the run.
type TelegramNotifier struct {
	Bots    *BotClients
	Retry   storage.RetryQueueStore
	Log     *zap.Logger
	DryRun  bool
}

func NewTelegramNotifier(bots *BotClients, retry storage.RetryQueueStore, log *zap.Logger, dryRun bool) *TelegramNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramNotifier{Bots: bots, Retry: retry, Log: log, DryRun: dryRun}
}

func (n *TelegramNotifier) SendAlert(ctx context.Context, job *models.CanonicalJob, fit *models.FitAnalysis) error {
	text := formatAlert(job, fit)
	return n.send(ctx, "alert", "jobs", text)
}

func (n *TelegramNotifier) SendDigest(ctx context.Context, period string, jobs []models.CanonicalJob) error {
	text := formatDigest(period, jobs)
	return n.send(ctx, "digest", "jobs", text)
}

func (n *TelegramNotifier) SendSystemAlert(ctx context.Context, message string) error {
	return n.send(ctx, "system", "logs", message)
}

// send delivers text via the named bot. A missing/empty token is treated
// as "messages are skipped and logged" per spec.md §6; a transport error
// is enqueued to the retry queue instead of propagating, since a failed
// notification must never fail the pipeline run.
func (n *TelegramNotifier) send(ctx context.Context, kind, botType, text string) error {
	if n.DryRun {
		n.Log.Info("notifier: dry run, skipping send", zap.String("botType", botType))
		return nil
	}
	if n.Bots == nil || !n.Bots.HasToken(botType) {
		n.Log.Warn("notifier: no token configured, skipping", zap.String("botType", botType))
		metrics.RecordSend(kind, "skipped")
		return nil
	}

	err := n.Bots.Send(ctx, botType, text)
	if err == nil {
		metrics.RecordSend(kind, "success")
		return nil
	}

	n.Log.Warn("notifier: send failed, enqueuing retry", zap.String("botType", botType), zap.Error(err))
	item := &models.RetryQueueItem{
		Message:     text,
		BotType:     botType,
		NextRetryAt: time.Now().Add(initialRetryDelay),
	}
	if enqErr := n.Retry.Enqueue(ctx, item); enqErr != nil {
		metrics.RecordSend(kind, "error")
		return fmt.Errorf("notifier: send failed and enqueue failed: %w (send error: %v)", enqErr, err)
	}
	metrics.RecordSend(kind, "retry_queued")
	return nil
}

// initialRetryDelay is the first backoff step for a failed send; FlushDue
// (see retry.go) doubles it per attempt.
const initialRetryDelay = 5 * time.Minute

func formatAlert(job *models.CanonicalJob, fit *models.FitAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 %s at %s\n%s\n", job.Title, job.Company, job.URL)
	if job.City != "" {
		fmt.Fprintf(&b, "📍 %s (%s)\n", job.City, job.WorkMode)
	}
	fmt.Fprintf(&b, "Score: %d (%s)\n", job.Score, job.ScoreBand)
	if fit != nil {
		fmt.Fprintf(&b, "Fit: %d — %s\n%s\n", fit.FitScore, fit.Verdict, fit.Summary)
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatDigest(period string, jobs []models.CanonicalJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s digest — %d jobs\n\n", capitalize(period), len(jobs))
	for _, j := range jobs {
		fmt.Fprintf(&b, "• %s at %s (%d, %s)\n  %s\n", j.Title, j.Company, j.Score, j.ScoreBand, j.URL)
	}
	return b.String()
}
