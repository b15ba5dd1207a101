package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/internal/cluster"
	"github.com/appbaseio/reindex-orchestrator/internal/reindex"
	"github.com/appbaseio/reindex-orchestrator/internal/store"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
)

// stubStore is a minimal store.Store good enough to exercise the worker's
// refresh/drive loop without a real cluster.
type stubStore struct {
	mu  sync.Mutex
	ops map[string]*reindexop.Operation
}

func newStubStore(ops ...*reindexop.Operation) *stubStore {
	s := &stubStore{ops: make(map[string]*reindexop.Operation)}
	for _, op := range ops {
		s.ops[op.IndexName] = op
	}
	return s
}

func (s *stubStore) CreateOperation(ctx context.Context, op *reindexop.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.IndexName] = op
	return nil
}

func (s *stubStore) GetOperation(ctx context.Context, indexName string) (*reindexop.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[indexName]
	if !ok {
		return nil, errors.NewNotFoundError(indexName)
	}
	c := *op
	return &c, nil
}

func (s *stubStore) DeleteOperation(ctx context.Context, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ops, indexName)
	return nil
}

func (s *stubStore) ListOperations(ctx context.Context, status reindexop.Status) ([]*reindexop.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reindexop.Operation
	for _, op := range s.ops {
		if op.Status == status {
			c := *op
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateOperation(ctx context.Context, op *reindexop.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.IndexName] = op
	return nil
}

func (s *stubStore) GetOrCreateMLCounter(ctx context.Context) (*reindexop.MLCounter, error) {
	return &reindexop.MLCounter{SeqNo: 1, PrimaryTerm: 1}, nil
}

func (s *stubStore) UpdateMLCounter(ctx context.Context, c *reindexop.MLCounter) error {
	return nil
}

var _ store.Store = (*stubStore)(nil)

// stubCluster acknowledges everything and reports a completed reindex task,
// letting a driven operation run all the way to completion in one
// driveUntilDry call.
type stubCluster struct {
	mu    sync.Mutex
	drain int
}

func (c *stubCluster) IndexExists(ctx context.Context, index string) (bool, error) { return true, nil }
func (c *stubCluster) PutSettings(ctx context.Context, index string, body map[string]interface{}) (bool, error) {
	return true, nil
}
func (c *stubCluster) FlatSettings(ctx context.Context, index string) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}
func (c *stubCluster) Mappings(ctx context.Context, index string) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}
func (c *stubCluster) CreateIndex(ctx context.Context, index string, body map[string]interface{}) (bool, error) {
	return true, nil
}
func (c *stubCluster) Reindex(ctx context.Context, req cluster.ReindexRequest) (string, error) {
	return "task-1", nil
}
func (c *stubCluster) TaskStatus(ctx context.Context, taskID string) (cluster.TaskProgress, error) {
	return cluster.TaskProgress{Completed: true, Created: 1, Total: 1}, nil
}
func (c *stubCluster) DeleteTask(ctx context.Context, taskID string) error { return nil }
func (c *stubCluster) Aliases(ctx context.Context, index string) ([]cluster.AliasInfo, error) {
	return nil, nil
}
func (c *stubCluster) UpdateAliases(ctx context.Context, actions []cluster.AliasAction) (bool, error) {
	c.mu.Lock()
	c.drain++
	c.mu.Unlock()
	return true, nil
}
func (c *stubCluster) NodeVersions(ctx context.Context) ([]cluster.NodeVersion, error) {
	return []cluster.NodeVersion{"7.10.0"}, nil
}
func (c *stubCluster) SetMLUpgradeMode(ctx context.Context, enabled bool) (bool, error) {
	return true, nil
}

var _ cluster.Client = (*stubCluster)(nil)

func TestNewPanicsOnSecondConstruction(t *testing.T) {
	constructMu.Lock()
	constructed = false
	constructMu.Unlock()
	defer func() {
		constructMu.Lock()
		constructed = false
		constructMu.Unlock()
	}()

	svc := reindex.NewService(newStubStore(), &stubCluster{})
	_ = New(svc)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a second construction to panic")
		}
	}()
	New(svc)
}

func TestForceRefreshIsNonBlocking(t *testing.T) {
	resetConstructed(t)
	svc := reindex.NewService(newStubStore(), &stubCluster{})
	w := New(svc)

	done := make(chan struct{})
	go func() {
		w.ForceRefresh()
		w.ForceRefresh()
		w.ForceRefresh()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ForceRefresh should never block even with a pending refresh")
	}
}

func TestIncludesReflectsRefreshedSet(t *testing.T) {
	resetConstructed(t)
	op := &reindexop.Operation{IndexName: "logs-2019", Status: reindexop.StatusInProgress, LastCompletedStep: reindexop.AliasCreated, IsMLIndex: false}
	st := newStubStore(op)
	svc := reindex.NewService(st, &stubCluster{})
	w := New(svc)

	if w.Includes(op) {
		t.Fatal("expected the set to be empty before any refresh")
	}

	if _, err := w.refreshSet(context.Background()); err != nil {
		t.Fatalf("refreshSet: %v", err)
	}
	if !w.Includes(op) {
		t.Error("expected the in-progress record to appear in the set after a refresh")
	}
}

func TestDriveUntilDryAdvancesUntilComplete(t *testing.T) {
	resetConstructed(t)
	op := &reindexop.Operation{IndexName: "logs-2019", Status: reindexop.StatusInProgress, LastCompletedStep: reindexop.AliasCreated, IsMLIndex: false}
	st := newStubStore(op)
	svc := reindex.NewService(st, &stubCluster{})
	w := New(svc)

	w.driveUntilDry(context.Background())

	got, err := st.GetOperation(context.Background(), "logs-2019")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != reindexop.StatusCompleted {
		t.Errorf("expected the operation to run to completion, got status=%v step=%v", got.Status, got.LastCompletedStep)
	}
}

func resetConstructed(t *testing.T) {
	t.Helper()
	constructMu.Lock()
	constructed = false
	constructMu.Unlock()
	t.Cleanup(func() {
		constructMu.Lock()
		constructed = false
		constructMu.Unlock()
	})
}
