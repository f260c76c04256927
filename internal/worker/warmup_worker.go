package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/core"
	"kakeibo/internal/plan"
)

// WarmupWorker periodically materializes the recurring records for the
// next few months so interactive requests find their instances already
// cached. Materialization is idempotent, so overlapping runs are safe.
type WarmupWorker struct {
	plan     *plan.Service
	months   int
	interval time.Duration
	now      func() time.Time
}

func NewWarmupWorker(planSvc *plan.Service, months int, interval time.Duration) *WarmupWorker {
	if months < 1 {
		months = 1
	}
	return &WarmupWorker{
		plan:     planSvc,
		months:   months,
		interval: interval,
		now:      time.Now,
	}
}

// Run warms immediately, then on every tick until the context ends.
func (w *WarmupWorker) Run(ctx context.Context) error {
	if err := w.WarmUp(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial warmup failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping warmup worker", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.WarmUp(ctx); err != nil {
				slog.ErrorContext(ctx, "Warmup failed", "error", err)
			}
		}
	}
}

// WarmUp materializes job incomes and monthly outcomes for the current
// month and the configured number of months after it.
func (w *WarmupWorker) WarmUp(ctx context.Context) error {
	start := core.YMOf(w.now())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	ym := start
	for i := 0; i <= w.months; i++ {
		month := ym
		g.Go(func() error {
			if _, err := w.plan.JobIncomes(gctx, month); err != nil {
				return fmt.Errorf("warm job incomes %s: %w", month, err)
			}
			if _, err := w.plan.MonthlyOutcomes(gctx, month); err != nil {
				return fmt.Errorf("warm monthly outcomes %s: %w", month, err)
			}
			return nil
		})
		ym = ym.Next()
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Warmup completed",
		"start", start.String(),
		"months", w.months+1)
	return nil
}
