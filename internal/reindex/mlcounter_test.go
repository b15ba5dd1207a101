package reindex

import (
	"context"
	"testing"
	"time"

	"github.com/appbaseio/reindex-orchestrator/internal/cluster"
)

func TestMLCounterSingleToggle(t *testing.T) {
	st := newFakeStore()
	cl := newFakeCluster()
	cl.nodeVersions = []cluster.NodeVersion{"7.10.0"}

	now := time.Now()

	if err := incrementMLCounter(context.Background(), st, cl, now); err != nil {
		t.Fatalf("first increment: %v", err)
	}
	if err := incrementMLCounter(context.Background(), st, cl, now); err != nil {
		t.Fatalf("second increment: %v", err)
	}
	if len(cl.mlToggleCalls) != 1 || cl.mlToggleCalls[0] != true {
		t.Fatalf("expected exactly one enable call, got %v", cl.mlToggleCalls)
	}

	if err := decrementMLCounter(context.Background(), st, cl, now); err != nil {
		t.Fatalf("first decrement: %v", err)
	}
	if len(cl.mlToggleCalls) != 1 {
		t.Fatalf("decrement from 2 to 1 should not toggle, got %v", cl.mlToggleCalls)
	}

	if err := decrementMLCounter(context.Background(), st, cl, now); err != nil {
		t.Fatalf("second decrement: %v", err)
	}
	if len(cl.mlToggleCalls) != 2 || cl.mlToggleCalls[1] != false {
		t.Fatalf("expected a disable call on the final decrement, got %v", cl.mlToggleCalls)
	}

	counter, err := st.GetOrCreateMLCounter(context.Background())
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	if counter.Count != 0 {
		t.Fatalf("expected counter back to 0, got %d", counter.Count)
	}
}

func TestCheckMinimumNodeVersionRejectsOldNodes(t *testing.T) {
	st := newFakeStore()
	cl := newFakeCluster()
	cl.nodeVersions = []cluster.NodeVersion{"6.5.0"}

	err := incrementMLCounter(context.Background(), st, cl, time.Now())
	assertTransient(t, err)
}
