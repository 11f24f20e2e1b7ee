package ratings

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Report summarizes one reconciliation pass.
type Report struct {
	RestaurantsUpdated     int `json:"restaurants_updated"`
	RestaurantsWithReviews int `json:"restaurants_with_reviews"`
	RestaurantsReset       int `json:"restaurants_reset"`
}

// Job recomputes and rewrites aggregates for every restaurant in the system.
// It is the authoritative drift-repair mechanism: safe to re-run at any time,
// idempotent, and commutative with interleaved per-restaurant triggers.
//
// The pass is O(restaurants + reviews) and runs as an administrative or
// scheduled action, not on a hot path.
type Job struct {
	engine      *Engine
	sync        *Sync
	restaurants restaurantLister
}

type restaurantLister interface {
	ListRestaurantIDs(ctx context.Context) ([]int64, error)
}

// NewJob creates a reconciliation job.
func NewJob(engine *Engine, sync *Sync, restaurants restaurantLister) *Job {
	return &Job{
		engine:      engine,
		sync:        sync,
		restaurants: restaurants,
	}
}

// Run executes one full reconciliation pass.
//
// Only an unreachable store at the start (cannot list restaurants, cannot
// read reviews at all) is fatal. Per-restaurant write failures are absorbed
// into the report and the run returns normally.
func (j *Job) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	ids, err := j.restaurants.ListRestaurantIDs(ctx)
	if err != nil {
		reconcileRuns.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("%w: list restaurants: %v", ErrStoreUnavailable, err)
	}

	aggregates, err := j.engine.ComputeAll(ctx)
	if err != nil {
		reconcileRuns.WithLabelValues("error").Inc()
		return Report{}, err
	}

	writes := j.sync.WriteAll(ctx, aggregates, ids)

	report := Report{
		RestaurantsUpdated:     writes.Updated,
		RestaurantsWithReviews: len(aggregates),
		RestaurantsReset:       writes.Reset,
	}

	reconcileRuns.WithLabelValues("ok").Inc()
	reconcileDuration.Observe(time.Since(start).Seconds())

	slog.Info("[Reconcile] Pass complete",
		"restaurants", len(ids),
		"with_reviews", report.RestaurantsWithReviews,
		"updated", report.RestaurantsUpdated,
		"reset", report.RestaurantsReset,
		"skipped", writes.Skipped,
		"failed", writes.Failed,
		"duration", time.Since(start),
	)

	return report, nil
}
