package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
	es7 "github.com/olivere/elastic/v7"
	log "github.com/sirupsen/logrus"
)

// es7Store persists operation and ML-counter records as documents in a
// single bookkeeping index, identifying an operation document by its
// source index name so findByIndexName is a Get rather than a search.
type es7Store struct {
	client *es7.Client
	index  string
}

// New wraps client, creating the bookkeeping index on first use if absent.
func New(client *es7.Client, index string) Store {
	if index == "" {
		index = DefaultIndex
	}
	return &es7Store{client: client, index: index}
}

func (s *es7Store) ensureIndex(ctx context.Context) error {
	exists, err := s.client.IndexExists(s.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("error checking bookkeeping index: %w", err)
	}
	if exists {
		return nil
	}
	_, err = s.client.CreateIndex(s.index).Do(ctx)
	if err != nil && !es7.IsConflict(err) {
		return fmt.Errorf("error creating bookkeeping index: %w", err)
	}
	return nil
}

func (s *es7Store) CreateOperation(ctx context.Context, op *reindexop.Operation) error {
	if err := s.ensureIndex(ctx); err != nil {
		return errors.NewInternalError("create reindex operation", err)
	}

	res, err := s.client.Index().
		Index(s.index).
		Id(op.IndexName).
		OpType("create").
		BodyJson(op).
		Do(ctx)
	if err != nil {
		if es7.IsConflict(err) {
			return errors.NewConflictError(op.IndexName, "an operation already exists for this index")
		}
		return errors.NewInternalError("create reindex operation", err)
	}

	op.ID = res.Id
	op.SeqNo = res.SeqNo
	op.PrimaryTerm = res.PrimaryTerm
	return nil
}

func (s *es7Store) GetOperation(ctx context.Context, indexName string) (*reindexop.Operation, error) {
	res, err := s.client.Get().Index(s.index).Id(indexName).Do(ctx)
	if err != nil {
		if es7.IsNotFound(err) {
			return nil, errors.NewNotFoundError(indexName)
		}
		return nil, errors.NewInternalError("get reindex operation", err)
	}

	var op reindexop.Operation
	if err := json.Unmarshal(res.Source, &op); err != nil {
		return nil, errors.NewInternalError("decode reindex operation", err)
	}
	op.ID = res.Id
	op.SeqNo = derefInt64(res.SeqNo)
	op.PrimaryTerm = derefInt64(res.PrimaryTerm)
	return &op, nil
}

func (s *es7Store) DeleteOperation(ctx context.Context, indexName string) error {
	_, err := s.client.Delete().Index(s.index).Id(indexName).Do(ctx)
	if err != nil && !es7.IsNotFound(err) {
		return errors.NewInternalError("delete reindex operation", err)
	}
	return nil
}

func (s *es7Store) ListOperations(ctx context.Context, status reindexop.Status) ([]*reindexop.Operation, error) {
	query := es7.NewTermQuery("status.keyword", string(status))
	res, err := s.client.Search().
		Index(s.index).
		Query(query).
		Sort("index_name.keyword", true).
		Size(1000).
		Do(ctx)
	if err != nil {
		return nil, errors.NewInternalError("list reindex operations", err)
	}

	ops := make([]*reindexop.Operation, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var op reindexop.Operation
		if err := json.Unmarshal(hit.Source, &op); err != nil {
			log.Warnln(logTag, ": skipping undecodable operation document", hit.Id, ":", err)
			continue
		}
		op.ID = hit.Id
		op.SeqNo = derefInt64(hit.SeqNo)
		op.PrimaryTerm = derefInt64(hit.PrimaryTerm)
		ops = append(ops, &op)
	}
	return ops, nil
}

func (s *es7Store) UpdateOperation(ctx context.Context, op *reindexop.Operation) error {
	res, err := s.client.Index().
		Index(s.index).
		Id(op.IndexName).
		IfSeqNo(op.SeqNo).
		IfPrimaryTerm(op.PrimaryTerm).
		BodyJson(op).
		Do(ctx)
	if err != nil {
		if es7.IsConflict(err) {
			return errors.NewConflictError(op.IndexName, "operation record changed since it was read")
		}
		return errors.NewInternalError("update reindex operation", err)
	}
	op.SeqNo = res.SeqNo
	op.PrimaryTerm = res.PrimaryTerm
	return nil
}

func (s *es7Store) GetOrCreateMLCounter(ctx context.Context) (*reindexop.MLCounter, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return nil, errors.NewInternalError("get ml counter", err)
	}

	res, err := s.client.Get().Index(s.index).Id(reindexop.MLCounterDocID).Do(ctx)
	if err == nil {
		var c reindexop.MLCounter
		if err := json.Unmarshal(res.Source, &c); err != nil {
			return nil, errors.NewInternalError("decode ml counter", err)
		}
		c.ID = res.Id
		c.SeqNo = derefInt64(res.SeqNo)
		c.PrimaryTerm = derefInt64(res.PrimaryTerm)
		return &c, nil
	}
	if !es7.IsNotFound(err) {
		return nil, errors.NewInternalError("get ml counter", err)
	}

	c := &reindexop.MLCounter{Count: 0}
	createRes, err := s.client.Index().
		Index(s.index).
		Id(reindexop.MLCounterDocID).
		OpType("create").
		BodyJson(c).
		Do(ctx)
	if err != nil {
		if es7.IsConflict(err) {
			// Lost a creation race; re-read the winner's document.
			return s.GetOrCreateMLCounter(ctx)
		}
		return nil, errors.NewInternalError("create ml counter", err)
	}
	c.ID = createRes.Id
	c.SeqNo = createRes.SeqNo
	c.PrimaryTerm = createRes.PrimaryTerm
	return c, nil
}

func (s *es7Store) UpdateMLCounter(ctx context.Context, c *reindexop.MLCounter) error {
	res, err := s.client.Index().
		Index(s.index).
		Id(reindexop.MLCounterDocID).
		IfSeqNo(c.SeqNo).
		IfPrimaryTerm(c.PrimaryTerm).
		BodyJson(c).
		Do(ctx)
	if err != nil {
		if es7.IsConflict(err) {
			return errors.NewConflictError(reindexop.MLCounterDocID, "ml counter changed since it was read")
		}
		return errors.NewInternalError("update ml counter", err)
	}
	c.SeqNo = res.SeqNo
	c.PrimaryTerm = res.PrimaryTerm
	return nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
