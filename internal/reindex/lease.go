package reindex

import (
	"context"
	"time"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/internal/store"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
)

// LeaseWindow is how long a stamped lease remains valid before another
// worker is allowed to steal it, assuming its owner crashed mid-step.
const LeaseWindow = 90 * time.Second

// acquireLease stamps op.Locked to now via an optimistic-concurrency
// update, refusing if an unexpired lease is already held.
func acquireLease(ctx context.Context, st store.Store, op *reindexop.Operation, now time.Time) error {
	if op.HasLease(now, LeaseWindow) {
		return errors.NewConflictError(op.IndexName, "lease held by another worker")
	}
	op.Locked = now
	return st.UpdateOperation(ctx, op)
}

// releaseLease clears op.Locked unconditionally, on both the success and
// failure path of the step that acquired it.
func releaseLease(ctx context.Context, st store.Store, op *reindexop.Operation) error {
	op.Locked = time.Time{}
	return st.UpdateOperation(ctx, op)
}
