package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/internal/cluster"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
	log "github.com/sirupsen/logrus"
)

// runStep dispatches to the body for op's current step. Every body mutates
// op in place and returns nil on success, a *errors.TransientError for a
// condition that should simply be retried next tick, or any other error to
// fail the operation outright.
func (s *Service) runStep(ctx context.Context, op *reindexop.Operation) error {
	switch op.LastCompletedStep {
	case reindexop.Created:
		return stepSetMLUpgradeMode(ctx, s, op)
	case reindexop.MlUpgradeModeSet:
		return stepReadonly(ctx, s, op)
	case reindexop.Readonly:
		return stepNewIndexCreated(ctx, s, op)
	case reindexop.NewIndexCreated:
		return stepReindexStarted(ctx, s, op)
	case reindexop.ReindexStarted:
		return stepReindexCompleted(ctx, s, op)
	case reindexop.ReindexCompleted:
		return stepAliasCreated(ctx, s, op)
	case reindexop.AliasCreated:
		return stepUnsetMLUpgradeMode(ctx, s, op)
	default:
		return errors.NewInternalError(fmt.Sprintf("no step defined past %s", op.LastCompletedStep), nil)
	}
}

// stepSetMLUpgradeMode: created -> mlUpgradeModeSet.
func stepSetMLUpgradeMode(ctx context.Context, s *Service, op *reindexop.Operation) error {
	if op.IsMLIndex {
		if err := incrementMLCounter(ctx, s.store, s.cluster, time.Now()); err != nil {
			return err
		}
	}
	op.LastCompletedStep = reindexop.MlUpgradeModeSet
	return nil
}

// stepReadonly: mlUpgradeModeSet -> readonly.
func stepReadonly(ctx context.Context, s *Service, op *reindexop.Operation) error {
	acked, err := s.cluster.PutSettings(ctx, op.IndexName, map[string]interface{}{
		"index.blocks.write": true,
	})
	if err != nil {
		return err
	}
	if !acked {
		return errors.NewTransientError(fmt.Sprintf("write-block on %q was not acknowledged", op.IndexName))
	}
	op.LastCompletedStep = reindexop.Readonly
	return nil
}

// stepNewIndexCreated: readonly -> newIndexCreated.
func stepNewIndexCreated(ctx context.Context, s *Service, op *reindexop.Operation) error {
	flatSettings, err := s.cluster.FlatSettings(ctx, op.IndexName)
	if err != nil {
		return err
	}
	rawMapping, err := s.cluster.Mappings(ctx, op.IndexName)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"settings": reindexop.TransformSettingsForDestination(flatSettings),
		"mappings": map[string]interface{}{
			"properties": reindexop.FlattenMappings(rawMapping),
		},
	}

	acked, err := s.cluster.CreateIndex(ctx, op.NewIndexName, body)
	if err != nil {
		return err
	}
	if !acked {
		return errors.NewTransientError(fmt.Sprintf("creation of %q was not acknowledged", op.NewIndexName))
	}
	op.LastCompletedStep = reindexop.NewIndexCreated
	return nil
}

// stepReindexStarted: newIndexCreated -> reindexStarted.
func stepReindexStarted(ctx context.Context, s *Service, op *reindexop.Operation) error {
	rawMapping, err := s.cluster.Mappings(ctx, op.IndexName)
	if err != nil {
		return err
	}
	paths := reindexop.BooleanFieldPaths(reindexop.FlattenMappings(rawMapping))
	lang, source, params := reindexop.BooleanCoercionScript(paths)

	taskID, err := s.cluster.Reindex(ctx, cluster.ReindexRequest{
		SourceIndex: op.IndexName,
		DestIndex:   op.NewIndexName,
		ScriptLang:  lang,
		ScriptSrc:   source,
		ScriptVars:  params,
	})
	if err != nil {
		return err
	}

	op.ReindexTaskID = taskID
	op.ReindexTaskPercComplete = 0
	op.LastCompletedStep = reindexop.ReindexStarted
	return nil
}

// stepReindexCompleted: reindexStarted -> reindexCompleted, or no-op while
// the task is still running.
func stepReindexCompleted(ctx context.Context, s *Service, op *reindexop.Operation) error {
	progress, err := s.cluster.TaskStatus(ctx, op.ReindexTaskID)
	if err != nil {
		return err
	}

	if !progress.Completed {
		if progress.Total > 0 {
			op.ReindexTaskPercComplete = float64(progress.Created) / float64(progress.Total)
		}
		return nil
	}

	if progress.Created < progress.Total {
		reason := "reindex task completed with an incomplete document count"
		if len(progress.Failures) > 0 {
			reason = progress.Failures[0].Cause
		}
		return fmt.Errorf("reindex task %s copied %d/%d documents: %s",
			op.ReindexTaskID, progress.Created, progress.Total, reason)
	}

	if err := s.cluster.DeleteTask(ctx, op.ReindexTaskID); err != nil {
		log.Warnln(logTag, ": error deleting finished task", op.ReindexTaskID, ":", err)
	}

	op.ReindexTaskPercComplete = 1
	op.LastCompletedStep = reindexop.ReindexCompleted
	return nil
}

// stepAliasCreated: reindexCompleted -> aliasCreated. Retires the source
// index and installs the new one under every alias the source carried,
// including its own name, in one atomic call.
func stepAliasCreated(ctx context.Context, s *Service, op *reindexop.Operation) error {
	existing, err := s.cluster.Aliases(ctx, op.IndexName)
	if err != nil {
		return err
	}

	actions := make([]cluster.AliasAction, 0, len(existing)+2)
	actions = append(actions,
		cluster.AliasAction{Kind: cluster.AliasRemoveIndex, Index: op.IndexName},
		cluster.AliasAction{Kind: cluster.AliasAdd, Index: op.NewIndexName, Alias: op.IndexName},
	)
	for _, alias := range existing {
		actions = append(actions, cluster.AliasAction{
			Kind:         cluster.AliasAdd,
			Index:        op.NewIndexName,
			Alias:        alias.Name,
			Filter:       alias.Filter,
			IsWriteIndex: alias.IsWriteIndex,
		})
	}

	acked, err := s.cluster.UpdateAliases(ctx, actions)
	if err != nil {
		return err
	}
	if !acked {
		return errors.NewTransientError(fmt.Sprintf("alias swap for %q was not acknowledged", op.IndexName))
	}

	op.LastCompletedStep = reindexop.AliasCreated
	return nil
}

// stepUnsetMLUpgradeMode: aliasCreated -> mlUpgradeModeUnset. Runs for every
// operation, ML or not, since completion is only reached from here.
func stepUnsetMLUpgradeMode(ctx context.Context, s *Service, op *reindexop.Operation) error {
	if op.IsMLIndex {
		if err := decrementMLCounter(ctx, s.store, s.cluster, time.Now()); err != nil {
			return err
		}
	}
	op.LastCompletedStep = reindexop.MlUpgradeModeUnset
	op.Status = reindexop.StatusCompleted
	op.ReindexTaskID = ""
	return nil
}
