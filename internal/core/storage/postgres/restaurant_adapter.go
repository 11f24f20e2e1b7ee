package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/plateful-app/plateful/internal/core/rating"
	"github.com/plateful-app/plateful/internal/core/storage"
)

// RestaurantAdapter implements storage.RestaurantStore using PostgreSQL.
type RestaurantAdapter struct {
	db *sql.DB
}

// NewRestaurantAdapter creates a new RestaurantAdapter sharing the given connection.
func NewRestaurantAdapter(db *sql.DB) *RestaurantAdapter {
	return &RestaurantAdapter{db: db}
}

// ListRestaurantIDs returns every restaurant id in ascending order.
func (a *RestaurantAdapter) ListRestaurantIDs(ctx context.Context) ([]int64, error) {
	rows, err := a.db.QueryContext(ctx, queryListRestaurantIDs)
	if err != nil {
		return nil, fmt.Errorf("list restaurant ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list restaurant ids: scan row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list restaurant ids: iterate rows: %w", err)
	}

	return ids, nil
}

// UpdateAggregate overwrites the aggregate columns for one restaurant.
// Returns storage.ErrNotFound when no row matches the id, which callers
// treat as a dangling cross-store reference rather than a failure.
func (a *RestaurantAdapter) UpdateAggregate(
	ctx context.Context,
	restaurantID int64,
	agg rating.Aggregate,
	updatedAt time.Time,
) error {
	result, err := a.db.ExecContext(ctx, queryUpdateAggregate,
		agg.AverageRating,
		agg.ReviewCount,
		updatedAt,
		restaurantID,
	)
	if err != nil {
		return fmt.Errorf("update aggregate for restaurant %d: %w", restaurantID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update aggregate for restaurant %d: rows affected: %w", restaurantID, err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}

	slog.Debug("[Postgres] Updated restaurant aggregate",
		"restaurant_id", restaurantID,
		"average_rating", agg.AverageRating,
		"review_count", agg.ReviewCount)
	return nil
}
