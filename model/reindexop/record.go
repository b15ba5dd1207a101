package reindexop

import "time"

// Step is a marker of how far an operation has progressed through the
// reindex state machine. Steps are strictly ordered; processNextStep only
// ever moves a record one step forward.
type Step int

const (
	Created Step = iota
	MlUpgradeModeSet
	Readonly
	NewIndexCreated
	ReindexStarted
	ReindexCompleted
	AliasCreated
	MlUpgradeModeUnset
)

func (s Step) String() string {
	return [...]string{
		"created",
		"ml_upgrade_mode_set",
		"readonly",
		"new_index_created",
		"reindex_started",
		"reindex_completed",
		"alias_created",
		"ml_upgrade_mode_unset",
	}[s]
}

// Status is the overall lifecycle state of an operation record.
type Status string

const (
	StatusInProgress Status = "inProgress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Operation is the persisted record driving a single index's migration
// through the reindex pipeline. It is mutated only by the reindex service,
// and only while the caller holds the lease (see Operation.Locked).
type Operation struct {
	// ID is the store's document identifier for this record. Empty until
	// the record has been created.
	ID string `json:"-"`

	// SeqNo and PrimaryTerm carry the store's optimistic-concurrency
	// version; every update must echo back the version it read.
	SeqNo       int64 `json:"-"`
	PrimaryTerm int64 `json:"-"`

	IndexName               string    `json:"index_name"`
	NewIndexName            string    `json:"new_index_name"`
	Status                  Status    `json:"status"`
	LastCompletedStep       Step      `json:"last_completed_step"`
	Locked                  time.Time `json:"locked,omitempty"`
	ReindexTaskID           string    `json:"reindex_task_id,omitempty"`
	ReindexTaskPercComplete float64   `json:"reindex_task_perc_complete"`
	ErrorMessage            string    `json:"error_message,omitempty"`
	IsMLIndex               bool      `json:"is_ml_index"`
}

// HasLease reports whether the record currently carries an unexpired lease.
func (o *Operation) HasLease(now time.Time, window time.Duration) bool {
	if o.Locked.IsZero() {
		return false
	}
	return now.Sub(o.Locked) < window
}

// MLCounter is the single well-known record tracking the number of
// concurrently in-flight ML-index reindexes, used to gate the cluster-wide
// ML upgrade-mode toggle.
type MLCounter struct {
	ID          string `json:"-"`
	SeqNo       int64  `json:"-"`
	PrimaryTerm int64  `json:"-"`

	Count  int       `json:"ml_reindex_count"`
	Locked time.Time `json:"locked,omitempty"`
}

// MLCounterDocID is the well-known id for the singleton ML counter document.
const MLCounterDocID = "upgrade-assistant-ml"

// HasLease reports whether the counter currently carries an unexpired lease.
func (c *MLCounter) HasLease(now time.Time, window time.Duration) bool {
	if c.Locked.IsZero() {
		return false
	}
	return now.Sub(c.Locked) < window
}
