// Package store persists the engine's position overrides across sessions.
//
// The engine itself only ever exchanges a plain id→point map ([Engine.Overrides]
// / [Engine.RestoreOverrides]); which backend holds it between runs is a host
// decision. This package defines the Store interface and implementations for
// different deployments:
//   - memory: in-process storage for development and testing
//   - file: JSON files in a config directory for CLI applications
//   - redis: shared storage for multi-instance server deployments
//
// Stores are keyed by a scope string (a session or document identifier), so
// one backend can hold overrides for many independent layouts.
package store

import (
	"context"
	"errors"

	"github.com/matzehuels/radialmap/pkg/view"
)

// ErrNotFound is returned when no override set exists for a scope.
var ErrNotFound = errors.New("not found")

// Store is the interface for override persistence backends.
type Store interface {
	// Load retrieves the override set for a scope.
	// Returns ErrNotFound if the scope has never been saved.
	Load(ctx context.Context, scope string) (map[string]view.Point, error)

	// Save replaces the override set for a scope.
	Save(ctx context.Context, scope string, overrides map[string]view.Point) error

	// Clear removes the override set for a scope. Clearing an absent scope
	// is a no-op.
	Clear(ctx context.Context, scope string) error
}
