package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/plateful-app/plateful/internal/api/v1"
	"github.com/plateful-app/plateful/internal/core/rating"
	"github.com/plateful-app/plateful/internal/core/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reviewsCollection = "reviews"

// ReviewAdapter implements storage.ReviewStore on a MongoDB collection.
// Review documents are only ever rewritten in place; soft-delete flips
// is_deleted and every read/aggregation path filters on it.
type ReviewAdapter struct {
	col *mongo.Collection
}

// NewReviewAdapter creates a review adapter on the given database.
func NewReviewAdapter(db *mongo.Database) *ReviewAdapter {
	return &ReviewAdapter{col: db.Collection(reviewsCollection)}
}

func (a *ReviewAdapter) CreateReview(ctx context.Context, review *v1.Review) error {
	if _, err := a.col.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	slog.Debug("[Mongo] Created review",
		"review_id", review.ID,
		"restaurant_id", review.RestaurantID,
		"user_id", review.UserID)
	return nil
}

// GetReview fetches one review by id, including soft-deleted documents.
func (a *ReviewAdapter) GetReview(ctx context.Context, id string) (*v1.Review, error) {
	var review v1.Review
	err := a.col.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review %s: %w", id, err)
	}
	return &review, nil
}

// UpdateContent rewrites the mutable content fields and refreshes updated_at.
func (a *ReviewAdapter) UpdateContent(ctx context.Context, review *v1.Review) error {
	update := bson.M{"$set": bson.M{
		"rating":     review.Rating,
		"comment":    review.Comment,
		"images":     review.Images,
		"updated_at": review.UpdatedAt,
	}}

	result, err := a.col.UpdateOne(ctx, bson.M{"_id": review.ID}, update)
	if err != nil {
		return fmt.Errorf("update review %s: %w", review.ID, err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (a *ReviewAdapter) SoftDeleteReview(ctx context.Context, id string, now time.Time) error {
	update := bson.M{"$set": bson.M{
		"is_deleted": true,
		"updated_at": now,
	}}

	result, err := a.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("soft-delete review %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	slog.Debug("[Mongo] Soft-deleted review", "review_id", id)
	return nil
}

// ToggleLike flips userID's membership in the liker set and adjusts the
// counter. Read-modify-write without a document lock: the store's per-document
// atomicity covers the final $set, matching the platform's last-write-wins
// posture elsewhere.
func (a *ReviewAdapter) ToggleLike(ctx context.Context, id string, userID int64, now time.Time) (*v1.Review, error) {
	review, err := a.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	applyLikeToggle(review, userID)
	review.UpdatedAt = now

	update := bson.M{"$set": bson.M{
		"likes":      review.Likes,
		"liked_by":   review.LikedBy,
		"updated_at": review.UpdatedAt,
	}}

	result, err := a.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, fmt.Errorf("toggle like on review %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return nil, storage.ErrNotFound
	}

	return review, nil
}

func (a *ReviewAdapter) ListByRestaurant(ctx context.Context, restaurantID int64, limit, offset int) ([]*v1.Review, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := a.col.Find(ctx, activeReviewFilter(restaurantID), opts)
	if err != nil {
		return nil, fmt.Errorf("list reviews for restaurant %d: %w", restaurantID, err)
	}
	defer cursor.Close(ctx)

	var reviews []*v1.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("list reviews for restaurant %d: decode: %w", restaurantID, err)
	}
	return reviews, nil
}

// AggregateForRestaurant computes the aggregate for one restaurant with a
// $match + $group($avg, $sum) pipeline. No qualifying reviews yields Zero.
func (a *ReviewAdapter) AggregateForRestaurant(ctx context.Context, restaurantID int64) (rating.Aggregate, error) {
	cursor, err := a.col.Aggregate(ctx, restaurantAggregatePipeline(restaurantID))
	if err != nil {
		return rating.Zero, fmt.Errorf("aggregate reviews for restaurant %d: %w", restaurantID, err)
	}
	defer cursor.Close(ctx)

	var rows []aggregateRow
	if err := cursor.All(ctx, &rows); err != nil {
		return rating.Zero, fmt.Errorf("aggregate reviews for restaurant %d: decode: %w", restaurantID, err)
	}
	if len(rows) == 0 {
		return rating.Zero, nil
	}
	return rows[0].aggregate(), nil
}

// AggregateByRestaurant groups all non-deleted reviews by restaurant id in a
// single pipeline pass. Restaurants with no qualifying reviews are absent
// from the result by construction.
func (a *ReviewAdapter) AggregateByRestaurant(ctx context.Context) (map[int64]rating.Aggregate, error) {
	cursor, err := a.col.Aggregate(ctx, allRestaurantsAggregatePipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate reviews by restaurant: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []aggregateRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("aggregate reviews by restaurant: decode: %w", err)
	}

	aggregates := make(map[int64]rating.Aggregate, len(rows))
	for _, row := range rows {
		aggregates[row.RestaurantID] = row.aggregate()
	}
	return aggregates, nil
}

// aggregateRow is the $group output shape.
type aggregateRow struct {
	RestaurantID  int64   `bson:"_id"`
	AverageRating float64 `bson:"average_rating"`
	ReviewCount   int64   `bson:"review_count"`
}

// aggregate normalizes the raw $avg double to the stored precision.
func (r aggregateRow) aggregate() rating.Aggregate {
	return rating.FromMean(r.AverageRating, r.ReviewCount)
}

// activeReviewFilter matches non-deleted reviews for one restaurant.
// is_deleted may be absent on documents created before the flag existed,
// so the filter uses $ne rather than an equality match on false.
func activeReviewFilter(restaurantID int64) bson.M {
	return bson.M{
		"restaurant_id": restaurantID,
		"is_deleted":    bson.M{"$ne": true},
	}
}

func groupByRestaurantStage() bson.D {
	return bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$restaurant_id"},
		{Key: "average_rating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		{Key: "review_count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}}
}

func restaurantAggregatePipeline(restaurantID int64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: activeReviewFilter(restaurantID)}},
		groupByRestaurantStage(),
	}
}

func allRestaurantsAggregatePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_deleted": bson.M{"$ne": true}}}},
		groupByRestaurantStage(),
	}
}

// applyLikeToggle flips userID's membership in the liker set in place.
// The likes counter tracks set size and never drops below zero.
func applyLikeToggle(review *v1.Review, userID int64) {
	for i, id := range review.LikedBy {
		if id == userID {
			review.LikedBy = append(review.LikedBy[:i], review.LikedBy[i+1:]...)
			if review.Likes > 0 {
				review.Likes--
			}
			return
		}
	}
	review.LikedBy = append(review.LikedBy, userID)
	review.Likes++
}
