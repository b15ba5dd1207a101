// Package reindex implements the stateless business logic that drives one
// operation record through the migration pipeline: request validation,
// one-step state transitions, lease acquisition, and best-effort cleanup
// on failure. It depends only on the store and cluster interfaces, never
// on a concrete backend, so it can be exercised against fakes.
package reindex

import (
	"context"
	"strings"
	"time"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/internal/cluster"
	"github.com/appbaseio/reindex-orchestrator/internal/store"
	"github.com/appbaseio/reindex-orchestrator/internal/warnings"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
	log "github.com/sirupsen/logrus"
)

const logTag = "[reindex]"

// Service is the stateless core: every method either reads the store and
// cluster or performs exactly one lease-guarded mutation.
type Service struct {
	store   store.Store
	cluster cluster.Client
}

// NewService wires a Service to its store and cluster dependencies.
func NewService(st store.Store, cl cluster.Client) *Service {
	return &Service{store: st, cluster: cl}
}

// mlIndexPrefixes names the conventional ML-system index namespaces that
// require the cluster-wide upgrade-mode toggle before they can be blocked.
var mlIndexPrefixes = []string{".ml-"}

func isMLIndex(indexName string) bool {
	for _, prefix := range mlIndexPrefixes {
		if strings.HasPrefix(indexName, prefix) {
			return true
		}
	}
	return false
}

// DetectReindexWarnings inspects a source index's settings and mappings,
// returning nil (no error) if the index doesn't exist — a null result
// signals absence, not the lack of any warning.
func (s *Service) DetectReindexWarnings(ctx context.Context, indexName string) ([]reindexop.Warning, error) {
	exists, err := s.cluster.IndexExists(ctx, indexName)
	if err != nil {
		return nil, errors.NewInternalError("check index existence", err)
	}
	if !exists {
		return nil, nil
	}

	flatSettings, err := s.cluster.FlatSettings(ctx, indexName)
	if err != nil {
		return nil, errors.NewInternalError("fetch settings", err)
	}
	rawMapping, err := s.cluster.Mappings(ctx, indexName)
	if err != nil {
		return nil, errors.NewInternalError("fetch mappings", err)
	}

	return warnings.Detect(flatSettings, rawMapping), nil
}

// CreateReindexOperation creates a fresh record for indexName. If a prior
// record exists and has failed, it is deleted and replaced; if one exists
// in any other status, creation fails with ConflictError.
func (s *Service) CreateReindexOperation(ctx context.Context, indexName string) (*reindexop.Operation, error) {
	exists, err := s.cluster.IndexExists(ctx, indexName)
	if err != nil {
		return nil, errors.NewInternalError("check index existence", err)
	}
	if !exists {
		return nil, errors.NewNotFoundError(indexName)
	}

	existing, err := s.store.GetOperation(ctx, indexName)
	if err != nil {
		if _, notFound := err.(*errors.NotFoundError); !notFound {
			return nil, err
		}
		existing = nil
	}

	if existing != nil {
		if existing.Status != reindexop.StatusFailed {
			return nil, errors.NewConflictError(indexName, "an operation is already in progress for this index")
		}
		if err := s.store.DeleteOperation(ctx, indexName); err != nil {
			return nil, err
		}
	}

	newIndexName, err := nextDestinationName(ctx, s.cluster, indexName)
	if err != nil {
		return nil, err
	}

	op := &reindexop.Operation{
		IndexName:         indexName,
		NewIndexName:      newIndexName,
		Status:            reindexop.StatusInProgress,
		LastCompletedStep: reindexop.Created,
		IsMLIndex:         isMLIndex(indexName),
	}
	if err := s.store.CreateOperation(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// FindReindexOperation returns the record for indexName, or nil if absent.
func (s *Service) FindReindexOperation(ctx context.Context, indexName string) (*reindexop.Operation, error) {
	op, err := s.store.GetOperation(ctx, indexName)
	if err != nil {
		if _, notFound := err.(*errors.NotFoundError); notFound {
			return nil, nil
		}
		return nil, err
	}
	return op, nil
}

// FindAllByStatus lists every record currently in the given status.
func (s *Service) FindAllByStatus(ctx context.Context, status reindexop.Status) ([]*reindexop.Operation, error) {
	return s.store.ListOperations(ctx, status)
}

// PauseReindexOperation moves an in-progress record to paused.
func (s *Service) PauseReindexOperation(ctx context.Context, indexName string) (*reindexop.Operation, error) {
	op, err := s.store.GetOperation(ctx, indexName)
	if err != nil {
		return nil, err
	}
	if op.Status != reindexop.StatusInProgress {
		return nil, errors.NewPreconditionError("operation is not in progress")
	}
	op.Status = reindexop.StatusPaused
	if err := s.store.UpdateOperation(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// ResumeReindexOperation moves a paused record back to in-progress.
func (s *Service) ResumeReindexOperation(ctx context.Context, indexName string) (*reindexop.Operation, error) {
	op, err := s.store.GetOperation(ctx, indexName)
	if err != nil {
		return nil, err
	}
	if op.Status != reindexop.StatusPaused {
		return nil, errors.NewPreconditionError("operation is not paused")
	}
	op.Status = reindexop.StatusInProgress
	if err := s.store.UpdateOperation(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// ProcessNextStep advances op by exactly one step under its lease. Any
// error escaping the step body is trapped — except a *errors.TransientError,
// which simply releases the lease for a retry on the next tick — marking
// the record failed and running best-effort cleanup.
func (s *Service) ProcessNextStep(ctx context.Context, op *reindexop.Operation) (*reindexop.Operation, error) {
	now := time.Now()
	if err := acquireLease(ctx, s.store, op, now); err != nil {
		return nil, err
	}

	stepErr := s.runStep(ctx, op)
	if stepErr != nil {
		if _, transient := stepErr.(*errors.TransientError); !transient {
			op.Status = reindexop.StatusFailed
			op.ErrorMessage = stepErr.Error()
			s.cleanupChanges(ctx, op)
		}
	}

	if err := releaseLease(ctx, s.store, op); err != nil {
		return nil, err
	}
	return op, stepErr
}

// cleanupChanges best-effort reverses the write-block on the source index
// after a step failure. It does not delete a partially created destination
// index — see the design notes for why that's left to manual inspection.
// Cleanup errors are logged, never propagated.
func (s *Service) cleanupChanges(ctx context.Context, op *reindexop.Operation) {
	if op.LastCompletedStep < reindexop.Readonly {
		return
	}
	_, err := s.cluster.PutSettings(ctx, op.IndexName, map[string]interface{}{
		"index.blocks.write": false,
	})
	if err != nil {
		log.Warnln(logTag, ": cleanup failed to lift write-block on", op.IndexName, ":", err)
	}
}
