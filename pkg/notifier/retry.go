package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobradar/pkg/metrics"
	"jobradar/pkg/storage"
)

// maxRetryAttempts bounds the retry queue's exponential schedule; an item
// that has failed this many times is dropped rather than retried forever.
const maxRetryAttempts = 6

// FlushDue re-sends every retry-queue item due by now, doubling its
// backoff on each further failure and removing it once it sends or after
// maxRetryAttempts, per spec.md §10 ("an exponential schedule").
func FlushDue(ctx context.Context, retry storage.RetryQueueStore, bots *BotClients, log *zap.Logger, now time.Time) (sent int, err error) {
	if log == nil {
		log = zap.NewNop()
	}

	items, err := retry.GetDue(ctx, now)
	if err != nil {
		return 0, err
	}

	remaining := len(items)
	defer func() { metrics.RetryQueueDepth.Set(float64(remaining)) }()

	for _, item := range items {
		sendErr := bots.Send(ctx, item.BotType, item.Message)
		if sendErr == nil {
			if rmErr := retry.Remove(ctx, item.ID); rmErr != nil {
				log.Warn("notifier: remove sent retry item failed", zap.Error(rmErr))
			}
			sent++
			remaining--
			continue
		}

		if item.RetryCount+1 >= maxRetryAttempts {
			log.Error("notifier: dropping retry item after max attempts", zap.String("botType", item.BotType))
			if rmErr := retry.Remove(ctx, item.ID); rmErr != nil {
				log.Warn("notifier: remove exhausted retry item failed", zap.Error(rmErr))
			}
			remaining--
			continue
		}

		backoff := initialRetryDelay << uint(item.RetryCount+1)
		if incErr := retry.IncrementRetry(ctx, item.ID, now.Add(backoff)); incErr != nil {
			log.Warn("notifier: increment retry failed", zap.Error(incErr))
		}
	}
	return sent, nil
}
