package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Engine hooks
	e := NoopEngineHooks{}
	e.OnRebuildStart(ctx, 42)
	e.OnRebuildComplete(ctx, "static", 17, time.Second)
	e.OnResolve(ctx, "static", 12, time.Millisecond)
	e.OnTick(ctx, true)
	e.OnCommand(ctx, "arrange", "node-1")

	// Store hooks
	s := NoopStoreHooks{}
	s.OnLoad(ctx, "file", 3, nil)
	s.OnSave(ctx, "redis", 5, nil)
	s.OnClear(ctx, "memory", nil)
}

type testEngineHooks struct {
	NoopEngineHooks
	ticks int
}

func (h *testEngineHooks) OnTick(context.Context, bool) { h.ticks++ }

type testStoreHooks struct {
	NoopStoreHooks
	saves int
}

func (h *testStoreHooks) OnSave(context.Context, string, int, error) { h.saves++ }

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	// Set custom hooks
	customEngine := &testEngineHooks{}
	customStore := &testStoreHooks{}
	SetEngineHooks(customEngine)
	SetStoreHooks(customStore)

	Engine().OnTick(context.Background(), true)
	Store().OnSave(context.Background(), "memory", 1, nil)

	if customEngine.ticks != 1 {
		t.Errorf("ticks = %d, want 1", customEngine.ticks)
	}
	if customStore.saves != 1 {
		t.Errorf("saves = %d, want 1", customStore.saves)
	}

	// Nil registrations are ignored
	SetEngineHooks(nil)
	if Engine() != EngineHooks(customEngine) {
		t.Error("nil SetEngineHooks must keep the previous hooks")
	}

	// Reset restores noops
	Reset()
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Reset() should restore NoopEngineHooks")
	}
}
