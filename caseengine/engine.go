package caseengine

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicwatch/case-api/models"
)

// TextExtractor is the external text-extraction collaborator. Extraction is
// asynchronous from the engine's perspective; the engine only hands out work
// and never blocks on it. mimeType may be empty, in which case the extractor
// is expected to detect the type itself.
type TextExtractor interface {
	Extract(ctx context.Context, storageRef, mimeType string) (string, error)
}

// Engine composes the record store, the case workflow, the evidence subsystem,
// the hearing log and the query pipeline behind one facade. All mutations are
// load-mutate-put under a single writer lock, so a partially applied update is
// never observable through the store.
type Engine struct {
	store     RecordStore
	extractor TextExtractor

	mu  sync.Mutex
	now func() time.Time
}

// New creates an engine around the given record store. extractor may be nil
// when no text-extraction collaborator is configured.
func New(store RecordStore, extractor TextExtractor) *Engine {
	return &Engine{
		store:     store,
		extractor: extractor,
		now:       time.Now,
	}
}

// GetCase returns the case or ErrNotFound.
func (e *Engine) GetCase(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	return e.store.Get(ctx, id)
}

// ListCases returns the full record set run through the presentation pipeline:
// status filter, then free-text search, then sort. Sort runs last so filtering
// cannot invalidate tie-break order.
func (e *Engine) ListCases(ctx context.Context, status models.CaseStatus, query string, key SortKey) ([]models.Case, error) {
	cases, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}
	cases = FilterByStatus(cases, status)
	cases = Search(cases, query)
	return SortCases(cases, key), nil
}

// DeleteCase removes the case and returns the storage refs of every evidence
// item it held, in attachment order. The engine does not own binary storage;
// the caller must revoke the returned refs with the storage collaborator so no
// dangling handles outlive the record.
func (e *Engine) DeleteCase(ctx context.Context, id primitive.ObjectID) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(c.Details.Evidence))
	for _, ev := range c.Details.Evidence {
		if ev.StorageRef != "" {
			refs = append(refs, ev.StorageRef)
		}
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	return refs, nil
}

// mutate runs fn against the current state of a case and writes the result
// back in one step. Every workflow, evidence and hearing mutation funnels
// through here.
func (e *Engine) mutate(ctx context.Context, id primitive.ObjectID, fn func(*models.Case) error) (*models.Case, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := e.store.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
