package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"hirely/internal/platform/config"
)

// Retrier re-dispatches parse jobs untouched since cutoff.
type Retrier interface {
	RetryPending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// RetryDispatches runs one pass of the dispatch retry worker.
func RetryDispatches(ctx context.Context, r Retrier, cfg config.WorkersConfig, now time.Time) error {
	cutoff := now.Add(-cfg.RetryBackoff)

	sent, err := r.RetryPending(ctx, cutoff, cfg.BatchSize)
	if err != nil {
		return err
	}
	if sent > 0 {
		log.Info().Int("sent", sent).Msg("Worker: re-dispatched parse jobs")
	}
	return nil
}

// RunRetryWorker calls RetryDispatches every cfg.RetryInterval until ctx is done.
func RunRetryWorker(ctx context.Context, r Retrier, cfg config.WorkersConfig) {
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Worker: dispatch retry worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Worker: dispatch retry worker stopped")
			return
		case t := <-ticker.C:
			if err := RetryDispatches(ctx, r, cfg, t); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Worker: dispatch retry failed")
			}
		}
	}
}
