package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshFunc re-reads cached occupancy from the store.
type RefreshFunc func(ctx context.Context) error

// Refresher is the polling freshness strategy: it invokes the refresh
// function at a fixed interval so the advisory occupancy view drifts at most
// one interval behind the store. It is not a correctness mechanism;
// submission re-validates regardless.
type Refresher struct {
	interval time.Duration
	refresh  RefreshFunc
	logger   *zerolog.Logger
}

func NewRefresher(interval time.Duration, refresh RefreshFunc, logger *zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Refresher{
		interval: interval,
		refresh:  refresh,
		logger:   logger,
	}
}

// Start polls until the context is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("occupancy refresher started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("occupancy refresher stopped")
			return
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				r.logger.Warn().Err(err).Msg("occupancy refresh failed")
			}
		}
	}
}
