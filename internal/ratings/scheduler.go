package ratings

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs the reconciliation job on a periodic interval.
// It is stateless: each tick independently recomputes every restaurant from
// the document store, so missed or overlapping ticks cannot corrupt state.
type Scheduler struct {
	interval time.Duration
	job      *Job
}

// NewScheduler creates a periodic reconciliation scheduler.
func NewScheduler(interval time.Duration, job *Job) *Scheduler {
	return &Scheduler{interval: interval, job: job}
}

// Start begins periodic reconciliation. Runs until the context is cancelled,
// then performs one final pass so a clean shutdown leaves no known drift.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting reconciliation scheduler", "interval", s.interval)

	// Initial pass repairs any drift accumulated while the process was down.
	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			slog.Info("[Scheduler] Running final reconciliation before shutdown...")
			s.runOnce(shutdownCtx)
			slog.Info("[Scheduler] Final reconciliation complete")

			return nil
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.job.Run(ctx); err != nil {
		slog.Error("[Scheduler] Reconciliation failed", "error", err)
	}
}
