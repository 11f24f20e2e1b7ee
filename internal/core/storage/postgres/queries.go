package postgres

// SQL queries for the denormalized restaurant aggregate columns.

const (
	// queryListRestaurantIDs fetches the full restaurant id list.
	// Reconciliation uses this to reset restaurants whose last review was
	// soft-deleted, so it must include restaurants with no reviews at all.
	queryListRestaurantIDs = `
		SELECT id
		FROM restaurants
		ORDER BY id ASC
	`

	// queryUpdateAggregate overwrites the aggregate columns for one row.
	// Last-write-wins: the schema has no version column, and only the
	// consistency sync is supposed to touch these three columns.
	queryUpdateAggregate = `
		UPDATE restaurants
		SET average_rating = $1,
		    review_count = $2,
		    rating_updated_at = $3
		WHERE id = $4
	`
)
