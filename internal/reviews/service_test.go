package reviews

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	v1 "github.com/plateful-app/plateful/internal/api/v1"
	"github.com/plateful-app/plateful/internal/core/rating"
	"github.com/plateful-app/plateful/internal/core/storage"
	"github.com/plateful-app/plateful/internal/notify"
	"github.com/plateful-app/plateful/internal/ratings"
	"github.com/stretchr/testify/require"
)

// memReviewStore is an in-memory document store honoring the soft-delete
// exclusion on reads and aggregation.
type memReviewStore struct {
	mu      sync.Mutex
	docs    map[string]*v1.Review
	downErr error
}

func newMemReviewStore() *memReviewStore {
	return &memReviewStore{docs: map[string]*v1.Review{}}
}

func (m *memReviewStore) CreateReview(ctx context.Context, review *v1.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downErr != nil {
		return m.downErr
	}
	clone := *review
	m.docs[review.ID] = &clone
	return nil
}

func (m *memReviewStore) GetReview(ctx context.Context, id string) (*v1.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downErr != nil {
		return nil, m.downErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (m *memReviewStore) UpdateContent(ctx context.Context, review *v1.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[review.ID]
	if !ok {
		return storage.ErrNotFound
	}
	doc.Rating = review.Rating
	doc.Comment = review.Comment
	doc.Images = review.Images
	doc.UpdatedAt = review.UpdatedAt
	return nil
}

func (m *memReviewStore) SoftDeleteReview(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return storage.ErrNotFound
	}
	doc.IsDeleted = true
	doc.UpdatedAt = now
	return nil
}

func (m *memReviewStore) ToggleLike(ctx context.Context, id string, userID int64, now time.Time) (*v1.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if doc.LikedByUser(userID) {
		kept := doc.LikedBy[:0]
		for _, liker := range doc.LikedBy {
			if liker != userID {
				kept = append(kept, liker)
			}
		}
		doc.LikedBy = kept
		if doc.Likes > 0 {
			doc.Likes--
		}
	} else {
		doc.LikedBy = append(doc.LikedBy, userID)
		doc.Likes++
	}
	doc.UpdatedAt = now
	clone := *doc
	return &clone, nil
}

func (m *memReviewStore) ListByRestaurant(ctx context.Context, restaurantID int64, limit, offset int) ([]*v1.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downErr != nil {
		return nil, m.downErr
	}
	var out []*v1.Review
	for _, doc := range m.docs {
		if doc.RestaurantID == restaurantID && !doc.IsDeleted {
			clone := *doc
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memReviewStore) AggregateForRestaurant(ctx context.Context, restaurantID int64) (rating.Aggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.downErr != nil {
		return rating.Zero, m.downErr
	}
	var stars []int
	for _, doc := range m.docs {
		if doc.RestaurantID == restaurantID && !doc.IsDeleted {
			stars = append(stars, doc.Rating)
		}
	}
	return rating.Compute(stars), nil
}

func (m *memReviewStore) AggregateByRestaurant(ctx context.Context) (map[int64]rating.Aggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grouped := map[int64][]int{}
	for _, doc := range m.docs {
		if !doc.IsDeleted {
			grouped[doc.RestaurantID] = append(grouped[doc.RestaurantID], doc.Rating)
		}
	}
	out := make(map[int64]rating.Aggregate, len(grouped))
	for id, stars := range grouped {
		out[id] = rating.Compute(stars)
	}
	return out, nil
}

// memRestaurantStore records aggregate writes for assertion.
type memRestaurantStore struct {
	mu   sync.Mutex
	rows map[int64]rating.Aggregate
}

func newMemRestaurantStore(ids ...int64) *memRestaurantStore {
	rows := make(map[int64]rating.Aggregate, len(ids))
	for _, id := range ids {
		rows[id] = rating.Zero
	}
	return &memRestaurantStore{rows: rows}
}

func (m *memRestaurantStore) ListRestaurantIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memRestaurantStore) UpdateAggregate(ctx context.Context, restaurantID int64, agg rating.Aggregate, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[restaurantID]; !ok {
		return storage.ErrNotFound
	}
	m.rows[restaurantID] = agg
	return nil
}

func (m *memRestaurantStore) aggregate(id int64) rating.Aggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

type serviceFixture struct {
	service     *Service
	store       *memReviewStore
	restaurants *memRestaurantStore
	pending     *notify.PendingCache
}

func newServiceFixture(t *testing.T, restaurantIDs ...int64) *serviceFixture {
	t.Helper()
	store := newMemReviewStore()
	restaurants := newMemRestaurantStore(restaurantIDs...)
	trigger := ratings.NewTrigger(ratings.NewEngine(store), ratings.NewSync(restaurants, 1))
	pending := notify.NewPendingCache(time.Hour)
	return &serviceFixture{
		service:     NewService(store, trigger, pending),
		store:       store,
		restaurants: restaurants,
		pending:     pending,
	}
}

func TestCreateReviewUpdatesAggregate(t *testing.T) {
	f := newServiceFixture(t, 42)
	ctx := context.Background()

	review, err := f.service.Create(ctx, 7, 42, 5, "great noodles", nil)
	require.NoError(t, err)
	require.NotEmpty(t, review.ID)
	require.False(t, review.CreatedAt.IsZero())
	require.Equal(t, rating.Aggregate{AverageRating: 5.0, ReviewCount: 1}, f.restaurants.aggregate(42))

	_, err = f.service.Create(ctx, 8, 42, 3, "", nil)
	require.NoError(t, err)
	require.Equal(t, rating.Aggregate{AverageRating: 4.0, ReviewCount: 2}, f.restaurants.aggregate(42))
}

func TestCreateReviewRejectsInvalidRating(t *testing.T) {
	f := newServiceFixture(t, 42)

	_, err := f.service.Create(context.Background(), 7, 42, 6, "", nil)
	require.ErrorIs(t, err, ErrInvalidReview)

	_, err = f.service.Create(context.Background(), 7, 42, 0, "", nil)
	require.ErrorIs(t, err, ErrInvalidReview)
}

func TestCreateSucceedsWhenRecomputeFails(t *testing.T) {
	// Restaurant 42 has no relational row: the aggregate write fails with an
	// invalid reference, but the review itself must still be created.
	f := newServiceFixture(t)

	review, err := f.service.Create(context.Background(), 7, 42, 4, "", nil)
	require.NoError(t, err)

	stored, err := f.store.GetReview(context.Background(), review.ID)
	require.NoError(t, err)
	require.Equal(t, 4, stored.Rating)
}

func TestUpdateReviewContent(t *testing.T) {
	f := newServiceFixture(t, 42)
	ctx := context.Background()

	review, err := f.service.Create(ctx, 7, 42, 5, "original", nil)
	require.NoError(t, err)

	stars := 3
	comment := "revised after a second visit"
	updated, err := f.service.Update(ctx, review.ID, 7, ContentPatch{Rating: &stars, Comment: &comment})
	require.NoError(t, err)
	require.Equal(t, 3, updated.Rating)
	require.Equal(t, comment, updated.Comment)
	require.Equal(t, rating.Aggregate{AverageRating: 3.0, ReviewCount: 1}, f.restaurants.aggregate(42))
}

func TestUpdateRejectsOtherUsersReview(t *testing.T) {
	f := newServiceFixture(t, 42)
	ctx := context.Background()

	review, err := f.service.Create(ctx, 7, 42, 5, "", nil)
	require.NoError(t, err)

	stars := 1
	_, err = f.service.Update(ctx, review.ID, 8, ContentPatch{Rating: &stars})
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateMissingReview(t *testing.T) {
	f := newServiceFixture(t, 42)

	stars := 1
	_, err := f.service.Update(context.Background(), "nope", 7, ContentPatch{Rating: &stars})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteResetsAggregateWhenLastReview(t *testing.T) {
	f := newServiceFixture(t, 42)
	ctx := context.Background()

	review, err := f.service.Create(ctx, 7, 42, 4, "", nil)
	require.NoError(t, err)
	require.False(t, f.restaurants.aggregate(42).IsZero())

	require.NoError(t, f.service.Delete(ctx, review.ID, 7))
	require.True(t, f.restaurants.aggregate(42).IsZero())

	// Deleted reviews behave as missing for further mutations.
	err = f.service.Delete(ctx, review.ID, 7)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestToggleLikeStagesPendingUpdateForAuthor(t *testing.T) {
	f := newServiceFixture(t, 42)
	ctx := context.Background()

	review, err := f.service.Create(ctx, 7, 42, 5, "", nil)
	require.NoError(t, err)

	liked, err := f.service.ToggleLike(ctx, review.ID, 9)
	require.NoError(t, err)
	require.Equal(t, int64(1), liked.Likes)
	require.True(t, liked.LikedByUser(9))

	updates := f.pending.Pending(7)
	require.Len(t, updates, 1)
	require.Equal(t, notify.KindReviewLiked, updates[0].Kind)
	require.Equal(t, review.ID, updates[0].ReviewID)
	require.Equal(t, int64(9), updates[0].ActorID)

	// Unliking does not stage another update.
	unliked, err := f.service.ToggleLike(ctx, review.ID, 9)
	require.NoError(t, err)
	require.Equal(t, int64(0), unliked.Likes)
	require.False(t, unliked.LikedByUser(9))
	require.Len(t, f.pending.Pending(7), 1)
}

func TestToggleLikeOwnReviewStagesNothing(t *testing.T) {
	f := newServiceFixture(t, 42)
	ctx := context.Background()

	review, err := f.service.Create(ctx, 7, 42, 5, "", nil)
	require.NoError(t, err)

	liked, err := f.service.ToggleLike(ctx, review.ID, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), liked.Likes)
	require.Empty(t, f.pending.Pending(7))
}

func TestListExcludesSoftDeleted(t *testing.T) {
	f := newServiceFixture(t, 42)
	ctx := context.Background()

	kept, err := f.service.Create(ctx, 7, 42, 5, "", nil)
	require.NoError(t, err)
	gone, err := f.service.Create(ctx, 8, 42, 2, "", nil)
	require.NoError(t, err)
	require.NoError(t, f.service.Delete(ctx, gone.ID, 8))

	listed, err := f.service.List(ctx, 42, 20, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, kept.ID, listed[0].ID)
}

func TestCreateFailsWhenStoreDown(t *testing.T) {
	f := newServiceFixture(t, 42)
	f.store.downErr = errors.New("store down")

	_, err := f.service.Create(context.Background(), 7, 42, 5, "", nil)
	require.Error(t, err)
}
