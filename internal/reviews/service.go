package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/plateful-app/plateful/internal/api/v1"
	"github.com/plateful-app/plateful/internal/core/storage"
	"github.com/plateful-app/plateful/internal/notify"
	"github.com/plateful-app/plateful/internal/ratings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	// ErrNotOwner is returned when a user mutates a review they did not author.
	ErrNotOwner = errors.New("review does not belong to user")

	// ErrInvalidReview wraps field-validation failures on create and update.
	ErrInvalidReview = errors.New("invalid review")
)

// Service owns the review lifecycle: create, edit, soft-delete, like-toggle
// and listing. Every rating-bearing mutation triggers an inline aggregate
// recompute for the affected restaurant; recompute failures are absorbed so
// the user-facing mutation never fails on their account.
type Service struct {
	store   storage.ReviewStore
	trigger *ratings.Trigger
	pending *notify.PendingCache
	nowFn   func() time.Time
}

func NewService(store storage.ReviewStore, trigger *ratings.Trigger, pending *notify.PendingCache) *Service {
	if store == nil {
		panic("reviews: store must not be nil")
	}
	if trigger == nil {
		panic("reviews: trigger must not be nil")
	}
	if pending == nil {
		panic("reviews: pending cache must not be nil")
	}
	return &Service{
		store:   store,
		trigger: trigger,
		pending: pending,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// RegisterRoutes registers the review service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/restaurants/:restaurant_id/reviews", s.CreateHandler)
	r.GET("/v1/restaurants/:restaurant_id/reviews", s.ListHandler)
	r.PATCH("/v1/reviews/:id", s.UpdateHandler)
	r.DELETE("/v1/reviews/:id", s.DeleteHandler)
	r.POST("/v1/reviews/:id/like", s.ToggleLikeHandler)
}

// Create persists a new review and recomputes the restaurant's aggregate.
func (s *Service) Create(ctx context.Context, userID, restaurantID int64, stars int, comment string, images []string) (*v1.Review, error) {
	now := s.nowFn()
	review := &v1.Review{
		ID:           uuid.NewString(),
		UserID:       userID,
		RestaurantID: restaurantID,
		Rating:       stars,
		Comment:      comment,
		Images:       images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := review.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReview, err)
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.recompute(ctx, restaurantID)
	return review, nil
}

// ContentPatch holds the mutable review fields for a partial update.
// Nil fields are left unchanged.
type ContentPatch struct {
	Rating  *int
	Comment *string
	Images  []string
}

// Update applies a content patch to the caller's own review.
// Soft-deleted reviews behave as if they do not exist.
func (s *Service) Update(ctx context.Context, id string, userID int64, patch ContentPatch) (*v1.Review, error) {
	review, err := s.ownedReview(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Rating != nil {
		review.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		review.Comment = *patch.Comment
	}
	if patch.Images != nil {
		review.Images = patch.Images
	}
	review.UpdatedAt = s.nowFn()

	if err := review.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReview, err)
	}

	if err := s.store.UpdateContent(ctx, review); err != nil {
		return nil, fmt.Errorf("update review %s: %w", id, err)
	}

	s.recompute(ctx, review.RestaurantID)
	return review, nil
}

// Delete soft-deletes the caller's own review. The document stays in the
// store; it simply stops counting toward listings and aggregates.
func (s *Service) Delete(ctx context.Context, id string, userID int64) error {
	review, err := s.ownedReview(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.store.SoftDeleteReview(ctx, id, s.nowFn()); err != nil {
		return fmt.Errorf("delete review %s: %w", id, err)
	}

	s.recompute(ctx, review.RestaurantID)
	return nil
}

// ToggleLike flips the caller's like on a review. Liking someone else's
// review stages a pending update for its author.
func (s *Service) ToggleLike(ctx context.Context, id string, userID int64) (*v1.Review, error) {
	current, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsDeleted {
		return nil, storage.ErrNotFound
	}

	liked := !current.LikedByUser(userID)

	review, err := s.store.ToggleLike(ctx, id, userID, s.nowFn())
	if err != nil {
		return nil, fmt.Errorf("toggle like on review %s: %w", id, err)
	}

	if liked && review.UserID != userID {
		s.pending.Stage(review.UserID, notify.Update{
			Kind:      notify.KindReviewLiked,
			ReviewID:  review.ID,
			ActorID:   userID,
			Likes:     review.Likes,
			CreatedAt: s.nowFn(),
		})
	}

	s.recompute(ctx, review.RestaurantID)
	return review, nil
}

// List returns a page of a restaurant's active reviews, newest first.
func (s *Service) List(ctx context.Context, restaurantID int64, limit, offset int) ([]*v1.Review, error) {
	reviews, err := s.store.ListByRestaurant(ctx, restaurantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews for restaurant %d: %w", restaurantID, err)
	}
	return reviews, nil
}

// ownedReview loads an active review and verifies the caller authored it.
func (s *Service) ownedReview(ctx context.Context, id string, userID int64) (*v1.Review, error) {
	review, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.IsDeleted {
		return nil, storage.ErrNotFound
	}
	if review.UserID != userID {
		return nil, ErrNotOwner
	}
	return review, nil
}

// recompute runs the inline aggregate trigger, absorbing failures.
// A failed recompute leaves the restaurant row stale until the next
// reconciliation pass; the review mutation itself already committed.
func (s *Service) recompute(ctx context.Context, restaurantID int64) {
	if err := s.trigger.Recompute(ctx, restaurantID); err != nil {
		slog.Warn("[Reviews] Aggregate recompute failed, reconciliation will repair",
			"restaurant_id", restaurantID,
			"error", err)
	}
}
