// Package runner drives periodic batch matching passes so new matches appear
// without waiting for a registration or a manual trigger.
package runner

import (
	"context"
	"log/slog"
	"time"

	"lifelink/internal/match/service"
	dErrors "lifelink/pkg/domain-errors"
)

// BatchService runs one full matching pass.
type BatchService interface {
	RunBatch(ctx context.Context) (service.BatchResult, error)
}

// Runner triggers a batch pass on a fixed interval.
type Runner struct {
	svc      BatchService
	interval time.Duration
	logger   *slog.Logger
}

func New(svc BatchService, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{svc: svc, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. A pass that loses the run slot to a
// concurrent trigger is skipped, not retried; the next tick covers it.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "batch runner started", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "batch runner stopped")
			return
		case <-ticker.C:
			result, err := r.svc.RunBatch(ctx)
			if err != nil {
				if dErrors.Is(err, dErrors.CodeConflict) {
					r.logger.DebugContext(ctx, "batch pass skipped, another pass is running")
					continue
				}
				r.logger.ErrorContext(ctx, "scheduled batch pass failed", "error", err.Error())
				continue
			}
			r.logger.InfoContext(ctx, "scheduled batch pass finished",
				"matches_found", result.MatchesFound,
				"ai_match_rate", result.AIMatchRate,
			)
		}
	}
}
