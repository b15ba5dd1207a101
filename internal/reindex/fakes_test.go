package reindex

import (
	"context"
	"sync"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/internal/cluster"
	"github.com/appbaseio/reindex-orchestrator/internal/store"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
)

var (
	_ store.Store    = (*fakeStore)(nil)
	_ cluster.Client = (*fakeCluster)(nil)
)

// fakeStore is an in-memory store.Store, versioning documents the same way
// the real one does: every update must carry the SeqNo it was last read
// with, or it's rejected with a ConflictError.
type fakeStore struct {
	mu  sync.Mutex
	ops map[string]*reindexop.Operation
	ml  *reindexop.MLCounter
}

func newFakeStore() *fakeStore {
	return &fakeStore{ops: make(map[string]*reindexop.Operation)}
}

func cloneOp(op *reindexop.Operation) *reindexop.Operation {
	c := *op
	return &c
}

func (f *fakeStore) CreateOperation(ctx context.Context, op *reindexop.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.ops[op.IndexName]; exists {
		return errors.NewConflictError(op.IndexName, "an operation already exists for this index")
	}
	op.SeqNo = 1
	op.PrimaryTerm = 1
	f.ops[op.IndexName] = cloneOp(op)
	return nil
}

func (f *fakeStore) GetOperation(ctx context.Context, indexName string) (*reindexop.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[indexName]
	if !ok {
		return nil, errors.NewNotFoundError(indexName)
	}
	return cloneOp(op), nil
}

func (f *fakeStore) DeleteOperation(ctx context.Context, indexName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ops, indexName)
	return nil
}

func (f *fakeStore) ListOperations(ctx context.Context, status reindexop.Status) ([]*reindexop.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*reindexop.Operation
	for _, op := range f.ops {
		if op.Status == status {
			out = append(out, cloneOp(op))
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateOperation(ctx context.Context, op *reindexop.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.ops[op.IndexName]
	if !ok {
		return errors.NewNotFoundError(op.IndexName)
	}
	if existing.SeqNo != op.SeqNo || existing.PrimaryTerm != op.PrimaryTerm {
		return errors.NewConflictError(op.IndexName, "operation record changed since it was read")
	}
	op.SeqNo++
	f.ops[op.IndexName] = cloneOp(op)
	return nil
}

func (f *fakeStore) GetOrCreateMLCounter(ctx context.Context) (*reindexop.MLCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ml == nil {
		f.ml = &reindexop.MLCounter{SeqNo: 1, PrimaryTerm: 1}
	}
	c := *f.ml
	return &c, nil
}

func (f *fakeStore) UpdateMLCounter(ctx context.Context, c *reindexop.MLCounter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ml == nil || f.ml.SeqNo != c.SeqNo {
		return errors.NewConflictError(reindexop.MLCounterDocID, "ml counter changed since it was read")
	}
	c.SeqNo++
	cp := *c
	f.ml = &cp
	return nil
}

// fakeCluster is an in-memory cluster.Client good enough to drive every
// step body without a real cluster.
type fakeCluster struct {
	mu sync.Mutex

	indices       map[string]bool
	flatSettings  map[string]map[string]interface{}
	mappings      map[string]map[string]interface{}
	aliases       map[string][]cluster.AliasInfo
	nodeVersions  []cluster.NodeVersion
	taskProgress  map[string]cluster.TaskProgress
	mlUpgradeMode bool

	putSettingsAck  bool
	createIndexAck  bool
	updateAliasAck  bool
	mlToggleAck     bool
	reindexTaskID   string
	reindexReqs     []cluster.ReindexRequest
	deletedTasks    []string
	mlToggleCalls   []bool
	putSettingsCall []string
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		indices:        make(map[string]bool),
		flatSettings:   make(map[string]map[string]interface{}),
		mappings:       make(map[string]map[string]interface{}),
		aliases:        make(map[string][]cluster.AliasInfo),
		taskProgress:   make(map[string]cluster.TaskProgress),
		putSettingsAck: true,
		createIndexAck: true,
		updateAliasAck: true,
		mlToggleAck:    true,
		reindexTaskID:  "task-1",
	}
}

func (f *fakeCluster) IndexExists(ctx context.Context, index string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indices[index], nil
}

func (f *fakeCluster) PutSettings(ctx context.Context, index string, body map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putSettingsCall = append(f.putSettingsCall, index)
	return f.putSettingsAck, nil
}

func (f *fakeCluster) FlatSettings(ctx context.Context, index string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flatSettings[index], nil
}

func (f *fakeCluster) Mappings(ctx context.Context, index string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mappings[index], nil
}

func (f *fakeCluster) CreateIndex(ctx context.Context, index string, body map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createIndexAck {
		f.indices[index] = true
	}
	return f.createIndexAck, nil
}

func (f *fakeCluster) Reindex(ctx context.Context, req cluster.ReindexRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reindexReqs = append(f.reindexReqs, req)
	return f.reindexTaskID, nil
}

func (f *fakeCluster) TaskStatus(ctx context.Context, taskID string) (cluster.TaskProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.taskProgress[taskID], nil
}

func (f *fakeCluster) DeleteTask(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedTasks = append(f.deletedTasks, taskID)
	return nil
}

func (f *fakeCluster) Aliases(ctx context.Context, index string) ([]cluster.AliasInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aliases[index], nil
}

func (f *fakeCluster) UpdateAliases(ctx context.Context, actions []cluster.AliasAction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateAliasAck, nil
}

func (f *fakeCluster) NodeVersions(ctx context.Context) ([]cluster.NodeVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodeVersions, nil
}

func (f *fakeCluster) SetMLUpgradeMode(ctx context.Context, enabled bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mlToggleCalls = append(f.mlToggleCalls, enabled)
	f.mlUpgradeMode = enabled
	return f.mlToggleAck, nil
}
