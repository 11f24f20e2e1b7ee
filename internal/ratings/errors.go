package ratings

import "errors"

// Error taxonomy for the aggregation engine and the consistency sync.
// All three are sentinel errors: callers classify with errors.Is and the
// wrapped message carries the cause.
var (
	// ErrStoreUnavailable means a backing store could not be reached.
	// Aggregation or reconciliation aborts for the affected restaurants;
	// the triggering review mutation is never rolled back.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSyncFailed means the aggregate was computed but the relational
	// write failed. Logged with the restaurant id and computed values for
	// reconciliation-driven repair; never surfaced to the reviewing user.
	ErrSyncFailed = errors.New("aggregate sync failed")

	// ErrInvalidReference means a review references a restaurant id with no
	// relational row behind it. The restaurant is skipped, never fatal to a
	// batch run.
	ErrInvalidReference = errors.New("restaurant no longer exists")
)
