package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/plateful-app/plateful/internal/api/v1"
	"github.com/plateful-app/plateful/internal/core/rating"
)

// ErrNotFound is returned when a requested record does not exist, or when an
// aggregate write targets a restaurant id with no relational row behind it.
var ErrNotFound = errors.New("record not found")

// ReviewStore is the document-store interface for review records.
//
// Soft-delete contract: SoftDeleteReview flips is_deleted and nothing else
// removes documents. Every read and aggregation method excludes soft-deleted
// reviews.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *v1.Review) error

	// GetReview fetches one review by id, soft-deleted documents included.
	// The service layer decides whether a deleted review is visible.
	GetReview(ctx context.Context, id string) (*v1.Review, error)

	// UpdateContent rewrites the mutable content fields (rating, comment,
	// images) and refreshes updated_at.
	UpdateContent(ctx context.Context, review *v1.Review) error

	SoftDeleteReview(ctx context.Context, id string, now time.Time) error

	// ToggleLike flips userID's membership in the review's liker set and
	// adjusts the likes counter, clamped at zero. Returns the updated review.
	ToggleLike(ctx context.Context, id string, userID int64, now time.Time) (*v1.Review, error)

	ListByRestaurant(ctx context.Context, restaurantID int64, limit, offset int) ([]*v1.Review, error)

	// AggregateForRestaurant computes the aggregate for one restaurant using
	// the store's grouped average primitive.
	AggregateForRestaurant(ctx context.Context, restaurantID int64) (rating.Aggregate, error)

	// AggregateByRestaurant groups all non-deleted reviews by restaurant in a
	// single pass. Restaurants with no qualifying reviews are absent from the
	// result by construction.
	AggregateByRestaurant(ctx context.Context) (map[int64]rating.Aggregate, error)
}

// RestaurantStore is the relational-store interface for the denormalized
// aggregate columns on restaurant rows. Updates are last-write-wins; the
// schema carries no optimistic concurrency token.
type RestaurantStore interface {
	// ListRestaurantIDs returns the full id list, used by reconciliation to
	// distinguish "no reviews" from "not yet computed".
	ListRestaurantIDs(ctx context.Context) ([]int64, error)

	// UpdateAggregate overwrites average_rating, review_count and
	// rating_updated_at for one restaurant. Returns ErrNotFound when the row
	// does not exist (a dangling cross-store reference).
	UpdateAggregate(ctx context.Context, restaurantID int64, agg rating.Aggregate, updatedAt time.Time) error
}
