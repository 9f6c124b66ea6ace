package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/radialmap/pkg/observability"
	"github.com/matzehuels/radialmap/pkg/view"
)

// FileStore is a file-based Store for CLI applications. Each scope's
// overrides are stored as one JSON file in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store rooted at baseDir.
// If baseDir is empty, it defaults to ~/.config/radialmap/overrides/.
// The directory is created if it does not exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "radialmap", "overrides")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", baseDir, err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Load retrieves the override set for a scope.
func (s *FileStore) Load(ctx context.Context, scope string) (map[string]view.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(scope))
	if os.IsNotExist(err) {
		observability.Store().OnLoad(ctx, "file", 0, ErrNotFound)
		return nil, ErrNotFound
	}
	if err != nil {
		observability.Store().OnLoad(ctx, "file", 0, err)
		return nil, fmt.Errorf("read overrides for %s: %w", scope, err)
	}

	var overrides map[string]view.Point
	if err := json.Unmarshal(data, &overrides); err != nil {
		observability.Store().OnLoad(ctx, "file", 0, err)
		return nil, fmt.Errorf("decode overrides for %s: %w", scope, err)
	}
	observability.Store().OnLoad(ctx, "file", len(overrides), nil)
	return overrides, nil
}

// Save replaces the override set for a scope. The file is written to a
// temporary name first and renamed into place, so a crash never leaves a
// half-written override set behind.
func (s *FileStore) Save(ctx context.Context, scope string, overrides map[string]view.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(overrides, "", "  ")
	if err != nil {
		observability.Store().OnSave(ctx, "file", 0, err)
		return fmt.Errorf("encode overrides for %s: %w", scope, err)
	}

	path := s.path(scope)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		observability.Store().OnSave(ctx, "file", 0, err)
		return fmt.Errorf("write overrides for %s: %w", scope, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		observability.Store().OnSave(ctx, "file", 0, err)
		return fmt.Errorf("commit overrides for %s: %w", scope, err)
	}
	observability.Store().OnSave(ctx, "file", len(overrides), nil)
	return nil
}

// Clear removes the override set for a scope.
func (s *FileStore) Clear(ctx context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(scope))
	if err != nil && !os.IsNotExist(err) {
		observability.Store().OnClear(ctx, "file", err)
		return fmt.Errorf("clear overrides for %s: %w", scope, err)
	}
	observability.Store().OnClear(ctx, "file", nil)
	return nil
}

// path maps a scope to its file. Scopes are hashed so arbitrary strings
// (file paths, URLs) stay filesystem-safe.
func (s *FileStore) path(scope string) string {
	sum := sha256.Sum256([]byte(scope))
	return filepath.Join(s.baseDir, hex.EncodeToString(sum[:16])+".json")
}
