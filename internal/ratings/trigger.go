package ratings

import "context"

// Trigger is the glue invoked synchronously after every review create,
// content update, soft-delete and like-toggle. It recomputes the single
// affected restaurant inline, before the triggering request returns.
//
// The read-aggregate / write-aggregate pair holds no lock: two concurrent
// mutations to the same restaurant can interleave so the earlier aggregate
// lands last. That window is accepted; the reconciliation job is the
// backstop.
type Trigger struct {
	engine *Engine
	sync   *Sync
}

// NewTrigger creates a mutation trigger.
func NewTrigger(engine *Engine, sync *Sync) *Trigger {
	return &Trigger{engine: engine, sync: sync}
}

// Recompute recalculates and syncs one restaurant's aggregate.
// Fails with ErrStoreUnavailable or ErrSyncFailed / ErrInvalidReference;
// the review service absorbs the error so the user-facing mutation is never
// affected.
func (t *Trigger) Recompute(ctx context.Context, restaurantID int64) error {
	agg, err := t.engine.ComputeOne(ctx, restaurantID)
	if err != nil {
		return err
	}
	return t.sync.WriteOne(ctx, restaurantID, agg)
}
