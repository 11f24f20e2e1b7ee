package ratings

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	v1 "github.com/plateful-app/plateful/internal/api/v1"
	"github.com/plateful-app/plateful/internal/core/rating"
	"github.com/plateful-app/plateful/internal/core/storage"
)

var errStoreDown = errors.New("store down")

func testNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

// fakeReviewStore derives aggregates from an in-memory review slice, honoring
// the soft-delete exclusion the real document store applies.
type fakeReviewStore struct {
	mu      sync.Mutex
	reviews []*v1.Review
	err     error
}

func (f *fakeReviewStore) add(id string, restaurantID int64, stars int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, &v1.Review{
		ID:           id,
		RestaurantID: restaurantID,
		Rating:       stars,
	})
}

func (f *fakeReviewStore) CreateReview(ctx context.Context, review *v1.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, review)
	return f.err
}

func (f *fakeReviewStore) GetReview(ctx context.Context, id string) (*v1.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.reviews {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeReviewStore) UpdateContent(ctx context.Context, review *v1.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.ID == review.ID {
			r.Rating = review.Rating
			r.Comment = review.Comment
			r.Images = review.Images
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeReviewStore) SoftDeleteReview(ctx context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.ID == id {
			r.IsDeleted = true
			r.UpdatedAt = now
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeReviewStore) ToggleLike(ctx context.Context, id string, userID int64, now time.Time) (*v1.Review, error) {
	return f.GetReview(ctx, id)
}

func (f *fakeReviewStore) ListByRestaurant(ctx context.Context, restaurantID int64, limit, offset int) ([]*v1.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*v1.Review
	for _, r := range f.reviews {
		if r.RestaurantID == restaurantID && !r.IsDeleted {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeReviewStore) AggregateForRestaurant(ctx context.Context, restaurantID int64) (rating.Aggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return rating.Zero, f.err
	}
	var stars []int
	for _, r := range f.reviews {
		if r.RestaurantID == restaurantID && !r.IsDeleted {
			stars = append(stars, r.Rating)
		}
	}
	return rating.Compute(stars), nil
}

func (f *fakeReviewStore) AggregateByRestaurant(ctx context.Context) (map[int64]rating.Aggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	grouped := make(map[int64][]int)
	for _, r := range f.reviews {
		if !r.IsDeleted {
			grouped[r.RestaurantID] = append(grouped[r.RestaurantID], r.Rating)
		}
	}
	out := make(map[int64]rating.Aggregate, len(grouped))
	for id, stars := range grouped {
		out[id] = rating.Compute(stars)
	}
	return out, nil
}

// restaurantRow mirrors the denormalized columns the sync layer writes.
type restaurantRow struct {
	agg       rating.Aggregate
	updatedAt time.Time
	writes    int
}

// fakeRestaurantStore keeps restaurant rows in a map. Ids in failIDs fail
// their writes; ids absent from rows report ErrNotFound.
type fakeRestaurantStore struct {
	mu      sync.Mutex
	rows    map[int64]*restaurantRow
	failIDs map[int64]bool
	listErr error
}

func newFakeRestaurantStore(ids ...int64) *fakeRestaurantStore {
	rows := make(map[int64]*restaurantRow, len(ids))
	for _, id := range ids {
		rows[id] = &restaurantRow{}
	}
	return &fakeRestaurantStore{rows: rows, failIDs: map[int64]bool{}}
}

func (f *fakeRestaurantStore) ListRestaurantIDs(ctx context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]int64, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeRestaurantStore) UpdateAggregate(ctx context.Context, restaurantID int64, agg rating.Aggregate, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[restaurantID] {
		return errStoreDown
	}
	row, ok := f.rows[restaurantID]
	if !ok {
		return storage.ErrNotFound
	}
	row.agg = agg
	row.updatedAt = updatedAt
	row.writes++
	return nil
}

func (f *fakeRestaurantStore) row(id int64) restaurantRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.rows[id]
}
