package ratings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/plateful-app/plateful/internal/core/rating"
	"github.com/plateful-app/plateful/internal/core/storage"
	"golang.org/x/sync/errgroup"
)

const defaultWriteWorkers = 8

// Sync propagates computed aggregates into the relational restaurant rows.
// Each row write is independent: there is no transaction spanning the two
// stores, and batching the relational writes would not close the cross-store
// race window anyway.
type Sync struct {
	restaurants  storage.RestaurantStore
	writeWorkers int
	nowFn        func() time.Time
}

// NewSync creates a consistency sync writing through the given restaurant store.
func NewSync(restaurants storage.RestaurantStore, writeWorkers int) *Sync {
	if restaurants == nil {
		panic("ratings: restaurant store must not be nil")
	}
	if writeWorkers <= 0 {
		writeWorkers = defaultWriteWorkers
	}
	return &Sync{
		restaurants:  restaurants,
		writeWorkers: writeWorkers,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WriteOne overwrites one restaurant's aggregate columns and stamps
// rating_updated_at. Writing the same aggregate twice is a no-op in effect;
// only the timestamp moves.
func (s *Sync) WriteOne(ctx context.Context, restaurantID int64, agg rating.Aggregate) error {
	err := s.restaurants.UpdateAggregate(ctx, restaurantID, agg, s.nowFn())
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: restaurant %d", ErrInvalidReference, restaurantID)
	}
	if err != nil {
		syncFailures.Inc()
		slog.Error("[Sync] Aggregate write failed",
			"restaurant_id", restaurantID,
			"average_rating", agg.AverageRating,
			"review_count", agg.ReviewCount,
			"error", err)
		return fmt.Errorf("%w: restaurant %d: %v", ErrSyncFailed, restaurantID, err)
	}
	return nil
}

// WriteReport counts the per-row outcomes of one WriteAll pass.
type WriteReport struct {
	// Updated counts restaurants holding at least one qualifying review
	// whose aggregate write succeeded.
	Updated int

	// Reset counts restaurants with no qualifying reviews whose row was
	// reset to the zero aggregate.
	Reset int

	// Skipped counts dangling references: aggregates computed for a
	// restaurant id with no relational row.
	Skipped int

	// Failed counts rows whose write failed; reconciliation will retry them
	// on its next pass.
	Failed int
}

// WriteAll writes every computed aggregate and resets every restaurant absent
// from the mapping to the zero aggregate. The reset path keeps restaurants
// whose last review was soft-deleted from showing stale non-zero stats.
//
// Row writes fan out over a bounded worker group. A failure on one
// restaurant's write is recorded and the pass continues for the rest.
func (s *Sync) WriteAll(ctx context.Context, aggregates map[int64]rating.Aggregate, allRestaurantIDs []int64) WriteReport {
	var (
		mu     sync.Mutex
		report WriteReport
	)

	record := func(err error, hasReviews bool) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil && hasReviews:
			report.Updated++
		case err == nil:
			report.Reset++
		case errors.Is(err, ErrInvalidReference):
			report.Skipped++
		default:
			report.Failed++
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(s.writeWorkers)

	known := make(map[int64]bool, len(allRestaurantIDs))
	for _, id := range allRestaurantIDs {
		id := id
		known[id] = true
		agg, hasReviews := aggregates[id]
		g.Go(func() error {
			record(s.WriteOne(ctx, id, agg), hasReviews)
			return nil
		})
	}

	// Aggregates keyed by an id missing from the relational store: attempted
	// anyway so the dangling reference is observed and counted.
	for id := range aggregates {
		if known[id] {
			continue
		}
		id := id
		agg := aggregates[id]
		g.Go(func() error {
			record(s.WriteOne(ctx, id, agg), true)
			return nil
		})
	}

	g.Wait() //nolint:errcheck // workers never return errors; failures are counted per row

	if report.Skipped > 0 || report.Failed > 0 {
		slog.Warn("[Sync] Write pass finished with degraded rows",
			"skipped", report.Skipped,
			"failed", report.Failed)
	}
	return report
}
