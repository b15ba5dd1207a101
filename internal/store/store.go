// Package store persists reindex operation records and the ML upgrade-mode
// counter as documents in a bookkeeping index on the same cluster being
// migrated. Every write is guarded by the document's SeqNo/PrimaryTerm, so
// two workers racing to update the same record get exactly one winner and
// one ConflictError.
package store

import (
	"context"

	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
)

const logTag = "[store]"

// DefaultIndex is the bookkeeping index this orchestrator keeps its own
// state in. It is distinct from any index under migration.
const DefaultIndex = ".reindex-orchestrator"

// Store is the persistence surface the reindex service and worker depend
// on. It never retries and never waits out a lease itself — callers decide
// what to do with a ConflictError.
type Store interface {
	// CreateOperation inserts a new record, failing with ConflictError if
	// one already exists for the same index name.
	CreateOperation(ctx context.Context, op *reindexop.Operation) error

	// GetOperation fetches the record for a source index name. Returns
	// NotFoundError if none exists.
	GetOperation(ctx context.Context, indexName string) (*reindexop.Operation, error)

	// DeleteOperation removes a record outright, used only when retrying a
	// previously failed operation.
	DeleteOperation(ctx context.Context, indexName string) error

	// ListOperations returns the records in the given status, sorted by
	// source index name; at most 1000 records are returned.
	ListOperations(ctx context.Context, status reindexop.Status) ([]*reindexop.Operation, error)

	// UpdateOperation persists op's current field values, conditioned on
	// the SeqNo/PrimaryTerm it was read with. Returns ConflictError if the
	// document has since been modified by someone else, and refreshes op
	// in place with the new version on success.
	UpdateOperation(ctx context.Context, op *reindexop.Operation) error

	// GetOrCreateMLCounter fetches the singleton ML counter document,
	// creating it with Count 0 on first use.
	GetOrCreateMLCounter(ctx context.Context) (*reindexop.MLCounter, error)

	// UpdateMLCounter persists c's current field values, conditioned on the
	// SeqNo/PrimaryTerm it was read with.
	UpdateMLCounter(ctx context.Context, c *reindexop.MLCounter) error
}
