package ratings

import (
	"context"
	"fmt"

	"github.com/plateful-app/plateful/internal/core/rating"
	"github.com/plateful-app/plateful/internal/core/storage"
)

// Engine computes rating aggregates from review documents.
// It is a pure read over the review store: no side effects, no caching.
type Engine struct {
	reviews storage.ReviewStore
}

// NewEngine creates an aggregation engine over the given review store.
func NewEngine(reviews storage.ReviewStore) *Engine {
	if reviews == nil {
		panic("ratings: review store must not be nil")
	}
	return &Engine{reviews: reviews}
}

// ComputeOne returns the aggregate over all non-deleted reviews for one
// restaurant. No qualifying reviews yields rating.Zero, never a partial
// aggregate.
func (e *Engine) ComputeOne(ctx context.Context, restaurantID int64) (rating.Aggregate, error) {
	agg, err := e.reviews.AggregateForRestaurant(ctx, restaurantID)
	if err != nil {
		return rating.Zero, fmt.Errorf("%w: compute aggregate for restaurant %d: %v", ErrStoreUnavailable, restaurantID, err)
	}
	return agg, nil
}

// ComputeAll groups all non-deleted reviews by restaurant in a single pass.
// Restaurants with no qualifying reviews are absent from the mapping; the
// caller distinguishes "no reviews" from "not yet computed" against the full
// restaurant id list.
func (e *Engine) ComputeAll(ctx context.Context) (map[int64]rating.Aggregate, error) {
	aggregates, err := e.reviews.AggregateByRestaurant(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: compute aggregates: %v", ErrStoreUnavailable, err)
	}
	return aggregates, nil
}
