package store

import (
	"context"
	"maps"
	"sync"

	"github.com/matzehuels/radialmap/pkg/observability"
	"github.com/matzehuels/radialmap/pkg/view"
)

// MemoryStore is an in-process Store for development and testing. It is safe
// for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]view.Point
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string]view.Point)}
}

// Load retrieves the override set for a scope.
func (s *MemoryStore) Load(ctx context.Context, scope string) (map[string]view.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	overrides, ok := s.scopes[scope]
	if !ok {
		observability.Store().OnLoad(ctx, "memory", 0, ErrNotFound)
		return nil, ErrNotFound
	}
	out := maps.Clone(overrides)
	observability.Store().OnLoad(ctx, "memory", len(out), nil)
	return out, nil
}

// Save replaces the override set for a scope.
func (s *MemoryStore) Save(ctx context.Context, scope string, overrides map[string]view.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[scope] = maps.Clone(overrides)
	observability.Store().OnSave(ctx, "memory", len(overrides), nil)
	return nil
}

// Clear removes the override set for a scope.
func (s *MemoryStore) Clear(ctx context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes, scope)
	observability.Store().OnClear(ctx, "memory", nil)
	return nil
}
