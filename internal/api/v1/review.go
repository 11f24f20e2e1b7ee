package v1

import (
	"fmt"
	"time"
)

const (
	// MinRating and MaxRating bound the star scale a review may carry.
	MinRating = 1
	MaxRating = 5
)

// Review is the document-store record for one user's review of a restaurant.
// Reviews are mutable and high-churn: content edits, like toggles and
// soft-deletes all rewrite the same document in place. A review is never
// physically removed; IsDeleted excludes it from reads and aggregation.
type Review struct {
	// ID is the opaque document identifier, immutable once created.
	// Assigned server-side (UUID) on creation.
	ID string `json:"id" bson:"_id"`

	// UserID and RestaurantID reference rows in the relational store.
	// There is no cross-store foreign key, so dangling references are
	// possible and must be tolerated by consumers.
	UserID       int64 `json:"user_id" bson:"user_id"`
	RestaurantID int64 `json:"restaurant_id" bson:"restaurant_id"`

	// Rating is the star value in [MinRating, MaxRating]. Required.
	Rating int `json:"rating" bson:"rating"`

	// Comment is optional free text.
	Comment string `json:"comment,omitempty" bson:"comment,omitempty"`

	// Images is an ordered list of URLs returned by the blob service.
	// The URLs are opaque to this system.
	Images []string `json:"images,omitempty" bson:"images,omitempty"`

	// Likes counts distinct likers; LikedBy holds their user ids and makes
	// like-toggling idempotent per user.
	Likes   int64   `json:"likes" bson:"likes"`
	LikedBy []int64 `json:"-" bson:"liked_by,omitempty"`

	// IsDeleted is the soft-delete flag. Once true the review is excluded
	// from listings and from every rating aggregate.
	IsDeleted bool `json:"-" bson:"is_deleted"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate ensures the review carries all required fields.
func (r *Review) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}

	if r.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}

	if r.RestaurantID <= 0 {
		return fmt.Errorf("restaurant_id is required")
	}

	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}

	return nil
}

// LikedByUser reports whether userID is in the review's liker set.
func (r *Review) LikedByUser(userID int64) bool {
	for _, id := range r.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
