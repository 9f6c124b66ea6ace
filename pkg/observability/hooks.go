// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about engine passes, tick loops, and override persistence.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Engine().OnRebuildStart(ctx, nodeCount)
//	// ... rebuild the layout ...
//	observability.Engine().OnRebuildComplete(ctx, mode, visibleCount, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the layout engine.
type EngineHooks interface {
	// Rebuild events: one full pipeline pass (build, analyze, sectors,
	// ideals, starting positions, resolution).
	OnRebuildStart(ctx context.Context, nodeCount int)
	OnRebuildComplete(ctx context.Context, mode string, visibleCount int, duration time.Duration)

	// OnResolve records one collision-resolution pass: a static run with
	// its iteration count, or a relaxation burst.
	OnResolve(ctx context.Context, mode string, iterations int, duration time.Duration)

	// OnTick records one relaxation tick and whether the system is still
	// settling afterwards.
	OnTick(ctx context.Context, settling bool)

	// OnCommand records an explicit engine command (drag commit, arrange,
	// focus, wobble, reset) against the node it targeted; id is empty for
	// whole-layout commands.
	OnCommand(ctx context.Context, command, id string)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from override-store persistence backends.
type StoreHooks interface {
	// OnLoad records a load of the persisted override set.
	OnLoad(ctx context.Context, backend string, entries int, err error)

	// OnSave records a save of the override set.
	OnSave(ctx context.Context, backend string, entries int, err error)

	// OnClear records a wholesale reset of the persisted overrides.
	OnClear(ctx context.Context, backend string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnRebuildStart(context.Context, int)                           {}
func (NoopEngineHooks) OnRebuildComplete(context.Context, string, int, time.Duration) {}
func (NoopEngineHooks) OnResolve(context.Context, string, int, time.Duration)         {}
func (NoopEngineHooks) OnTick(context.Context, bool)                                  {}
func (NoopEngineHooks) OnCommand(context.Context, string, string)                     {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, string, int, error) {}
func (NoopStoreHooks) OnSave(context.Context, string, int, error) {}
func (NoopStoreHooks) OnClear(context.Context, string, error)     {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks EngineHooks = NoopEngineHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	hooksMu     sync.RWMutex
)

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup before any engine use.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store use.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	storeHooks = NoopStoreHooks{}
}
