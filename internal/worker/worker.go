// Package worker implements the process-wide singleton that discovers
// in-progress operations and drives them through the reindex pipeline.
// It never talks to the store or cluster directly — all of that goes
// through the reindex.Service it wraps — so the only state it owns is the
// in-memory set of operations it currently believes are in progress.
package worker

import (
	"context"
	"sync"

	"github.com/appbaseio/reindex-orchestrator/internal/reindex"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

const logTag = "[worker]"

// PollInterval is how often the outer loop checks the store for
// newly in-progress operations.
const PollInterval = "@every 30s"

var (
	constructMu sync.Mutex
	constructed bool
)

// Worker is the process-wide driver. Exactly one instance may exist per
// process; New panics on a second call.
type Worker struct {
	service *reindex.Service

	cron      *cron.Cron
	refreshCh chan struct{}
	stopCh    chan struct{}
	done      chan struct{}

	mu  sync.Mutex
	set map[string]*reindexop.Operation
}

// New constructs the worker. Panics if called more than once in this
// process, mirroring the source's single-instance constructor guard.
func New(service *reindex.Service) *Worker {
	constructMu.Lock()
	defer constructMu.Unlock()
	if constructed {
		panic("worker: an instance already exists for this process")
	}
	constructed = true

	return &Worker{
		service:   service,
		refreshCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		set:       make(map[string]*reindexop.Operation),
	}
}

// Start begins the outer poll loop and the long-lived task that drives the
// in-memory set whenever a tick or a forced refresh arrives.
func (w *Worker) Start() {
	w.cron = cron.New()
	if err := w.cron.AddFunc(PollInterval, w.ForceRefresh); err != nil {
		log.Fatalln(logTag, ": error scheduling poll loop:", err)
	}
	w.cron.Start()

	go w.run()
	w.ForceRefresh()
}

// Stop refuses further poll cycles and waits for any in-flight drive pass
// to finish — it does not cancel in-flight cluster calls mid-step.
func (w *Worker) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
	close(w.stopCh)
	<-w.done
}

// ForceRefresh triggers an out-of-band refresh of the in-memory set,
// intended for use right after a new operation is created.
func (w *Worker) ForceRefresh() {
	select {
	case w.refreshCh <- struct{}{}:
	default:
		// A refresh is already pending; no need to queue another.
	}
}

// Includes reports whether the worker currently holds op in its in-memory
// set of known in-progress operations.
func (w *Worker) Includes(op *reindexop.Operation) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.set[op.IndexName]
	return ok
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case <-w.refreshCh:
			w.driveUntilDry(context.Background())
		}
	}
}

// driveUntilDry repeatedly advances every known in-progress operation by
// one step, concurrently, refreshing the set from the store between
// passes, until the store reports none left or the worker is stopped.
func (w *Worker) driveUntilDry(ctx context.Context) {
	ops, err := w.refreshSet(ctx)
	if err != nil {
		log.Errorln(logTag, ": error listing in-progress operations:", err)
		return
	}

	for len(ops) > 0 {
		select {
		case <-w.stopCh:
			return
		default:
		}

		var wg sync.WaitGroup
		for _, op := range ops {
			wg.Add(1)
			go w.driveOne(ctx, op, &wg)
		}
		wg.Wait()

		ops, err = w.refreshSet(ctx)
		if err != nil {
			log.Errorln(logTag, ": error refreshing in-progress operations:", err)
			return
		}
	}
}

// driveOne advances a single operation by one step. Any panic or error
// escaping the service call is swallowed and logged — one bad record must
// never take down the loop driving the others.
func (w *Worker) driveOne(ctx context.Context, op *reindexop.Operation, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Errorln(logTag, ": recovered panic driving", op.IndexName, ":", r)
			sentry.CurrentHub().Recover(r)
		}
	}()

	if _, err := w.service.ProcessNextStep(ctx, op); err != nil {
		log.Warnln(logTag, ": step failed for", op.IndexName, ":", err)
	}
}

func (w *Worker) refreshSet(ctx context.Context) ([]*reindexop.Operation, error) {
	ops, err := w.service.FindAllByStatus(ctx, reindexop.StatusInProgress)
	if err != nil {
		return nil, err
	}

	set := make(map[string]*reindexop.Operation, len(ops))
	for _, op := range ops {
		set[op.IndexName] = op
	}

	w.mu.Lock()
	w.set = set
	w.mu.Unlock()

	return ops, nil
}
