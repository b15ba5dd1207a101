package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/internal/cluster"
	"github.com/appbaseio/reindex-orchestrator/internal/store"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
	v "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
)

// minMLUpgradeModeVersion is the oldest node version that accepts the ML
// upgrade-mode endpoint.
var minMLUpgradeModeVersion = v.Must(v.NewVersion("6.7.0"))

// incrementMLCounter takes the singleton counter's lease, increments it,
// and — only on the increment that takes the count from 0 to 1 — enables
// ML upgrade mode cluster-wide. The lease is always released before
// returning, success or failure.
func incrementMLCounter(ctx context.Context, st store.Store, cl cluster.Client, now time.Time) error {
	counter, err := st.GetOrCreateMLCounter(ctx)
	if err != nil {
		return err
	}
	if counter.HasLease(now, LeaseWindow) {
		return errors.NewConflictError(reindexop.MLCounterDocID, "lease held by another worker")
	}
	counter.Locked = now
	if err := st.UpdateMLCounter(ctx, counter); err != nil {
		return err
	}
	defer releaseMLCounterLease(ctx, st, counter)

	if err := checkMinimumNodeVersion(ctx, cl); err != nil {
		return err
	}

	counter.Count++
	if counter.Count == 1 {
		acked, err := cl.SetMLUpgradeMode(ctx, true)
		if err != nil {
			return err
		}
		if !acked {
			return errors.NewInternalError("ml upgrade mode enable not acknowledged", nil)
		}
	}
	return st.UpdateMLCounter(ctx, counter)
}

// decrementMLCounter is the mirror of incrementMLCounter: it disables ML
// upgrade mode only on the decrement that brings the count back to zero.
func decrementMLCounter(ctx context.Context, st store.Store, cl cluster.Client, now time.Time) error {
	counter, err := st.GetOrCreateMLCounter(ctx)
	if err != nil {
		return err
	}
	if counter.HasLease(now, LeaseWindow) {
		return errors.NewConflictError(reindexop.MLCounterDocID, "lease held by another worker")
	}
	counter.Locked = now
	if err := st.UpdateMLCounter(ctx, counter); err != nil {
		return err
	}
	defer releaseMLCounterLease(ctx, st, counter)

	if counter.Count == 0 {
		return nil
	}
	counter.Count--
	if counter.Count == 0 {
		acked, err := cl.SetMLUpgradeMode(ctx, false)
		if err != nil {
			return err
		}
		if !acked {
			return errors.NewInternalError("ml upgrade mode disable not acknowledged", nil)
		}
	}
	return st.UpdateMLCounter(ctx, counter)
}

func releaseMLCounterLease(ctx context.Context, st store.Store, counter *reindexop.MLCounter) {
	counter.Locked = time.Time{}
	if err := st.UpdateMLCounter(ctx, counter); err != nil {
		log.Warnln(logTag, ": error releasing ml counter lease:", err)
	}
}

func checkMinimumNodeVersion(ctx context.Context, cl cluster.Client) error {
	versions, err := cl.NodeVersions(ctx)
	if err != nil {
		return err
	}
	for _, nodeVersion := range versions {
		parsed, err := v.NewVersion(string(nodeVersion))
		if err != nil {
			log.Warnln(logTag, ": unable to parse node version", nodeVersion, ":", err)
			continue
		}
		if parsed.LessThan(minMLUpgradeModeVersion) {
			return errors.NewTransientError(fmt.Sprintf(
				"node version %s is below the minimum %s required for ML upgrade mode",
				nodeVersion, minMLUpgradeModeVersion))
		}
	}
	return nil
}
