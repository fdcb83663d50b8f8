package caseengine

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicwatch/case-api/models"
)

// RecordStore holds the authoritative collection of cases keyed by id. The
// store does no validation and no ordering; both belong to the engine. Put is
// insert-or-full-replace with the id already assigned by the caller.
type RecordStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Case, error)
	Put(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context) ([]models.Case, error)
}

// MemoryStore is an in-process RecordStore. It backs tests and single-node
// deployments that do not configure mongo.
type MemoryStore struct {
	mu    sync.RWMutex
	cases map[primitive.ObjectID]models.Case
}

// NewMemoryStore returns an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cases: make(map[primitive.ObjectID]models.Case)}
}

// Get returns a copy of the stored case so callers cannot mutate store state
// without going back through Put.
func (s *MemoryStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
	}
	out := c.Clone()
	return &out, nil
}

// Put inserts or fully replaces the case.
func (s *MemoryStore) Put(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = c.Clone()
	return nil
}

// Delete removes the case, failing if it is absent.
func (s *MemoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
	}
	delete(s.cases, id)
	return nil
}

// List returns a stable snapshot of every case. Order is unspecified; the
// query pipeline is responsible for ordering.
func (s *MemoryStore) List(ctx context.Context) ([]models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c.Clone())
	}
	return out, nil
}
