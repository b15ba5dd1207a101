// Package cluster defines the typed surface of the target cluster that the
// reindex service drives operations against: settings, index lifecycle,
// the reindex/tasks APIs, aliases, node discovery, and the ML upgrade-mode
// endpoint. The concrete implementation lives in es7.go; everything above
// the service layer depends only on the Client interface so that step
// bodies can be exercised against a fake in tests.
package cluster

import "context"

// AliasInfo describes one alias currently pointing at an index, including
// any filter it carries, so the alias-swap step can re-attach it verbatim
// to the destination index.
type AliasInfo struct {
	Name         string                 `json:"name"`
	Filter       map[string]interface{} `json:"filter,omitempty"`
	IsWriteIndex bool                   `json:"is_write_index,omitempty"`
}

// AliasActionKind is the operation type of one entry in an _aliases call.
type AliasActionKind int

const (
	// AliasAdd points Alias at Index, optionally carrying a filter.
	AliasAdd AliasActionKind = iota
	// AliasRemoveIndex deletes Index outright and drops every alias that
	// pointed at it, atomically with the rest of the actions in the call —
	// this is how the alias-swap step retires the source index in the same
	// request that installs the new aliases.
	AliasRemoveIndex
)

// AliasAction is one operation inside an atomic _aliases update call.
type AliasAction struct {
	Kind         AliasActionKind
	Index        string
	Alias        string
	Filter       map[string]interface{}
	IsWriteIndex bool
}

// ReindexRequest is the body of a POST _reindex call.
type ReindexRequest struct {
	SourceIndex string
	DestIndex   string
	ScriptLang  string
	ScriptSrc   string
	ScriptVars  map[string]interface{}
}

// TaskProgress is the subset of a GET _tasks/{id} response the reindex
// service needs to decide whether to keep polling, finish, or fail.
type TaskProgress struct {
	Completed bool
	Created   int64
	Total     int64
	Failures  []TaskFailure
}

// TaskFailure is one entry of a completed task's response.failures array.
type TaskFailure struct {
	Index string
	ID    string
	Cause string
}

// NodeVersion is the semantic version string reported by one cluster node.
type NodeVersion string

// Client is the set of cluster capabilities the reindex service consumes.
// Every method is a single cluster round trip; none of them retry or poll —
// that's the caller's job, since the caller holds the record's lease and
// must not block it for longer than the lease window.
type Client interface {
	// IndexExists reports whether an index (or a pattern resolving to one
	// concrete index) currently exists.
	IndexExists(ctx context.Context, index string) (bool, error)

	// PutSettings applies a partial settings update to an existing index.
	PutSettings(ctx context.Context, index string, body map[string]interface{}) (acknowledged bool, err error)

	// FlatSettings returns an index's settings in dot-notation key form.
	FlatSettings(ctx context.Context, index string) (map[string]interface{}, error)

	// Mappings returns the raw mapping document for an index, as returned
	// by the cluster (which may still be type-wrapped).
	Mappings(ctx context.Context, index string) (map[string]interface{}, error)

	// CreateIndex creates a new index with the given settings+mappings body.
	CreateIndex(ctx context.Context, index string, body map[string]interface{}) (acknowledged bool, err error)

	// Reindex dispatches an asynchronous reindex task and returns its id.
	Reindex(ctx context.Context, req ReindexRequest) (taskID string, err error)

	// TaskStatus polls the task API without waiting for completion.
	TaskStatus(ctx context.Context, taskID string) (TaskProgress, error)

	// DeleteTask removes a completed task's bookkeeping document.
	DeleteTask(ctx context.Context, taskID string) error

	// Aliases lists the aliases currently pointing at index, with filters.
	Aliases(ctx context.Context, index string) ([]AliasInfo, error)

	// UpdateAliases performs a list of alias actions atomically.
	UpdateAliases(ctx context.Context, actions []AliasAction) (acknowledged bool, err error)

	// NodeVersions returns the reported version of every node in the
	// cluster, used to gate the ML upgrade-mode toggle on a minimum
	// cluster version.
	NodeVersions(ctx context.Context) ([]NodeVersion, error)

	// SetMLUpgradeMode calls the cluster-wide ML upgrade-mode endpoint.
	SetMLUpgradeMode(ctx context.Context, enabled bool) (acknowledged bool, err error)
}
