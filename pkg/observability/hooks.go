// Package observability provides hooks for tracing and metrics of build
// sessions.
//
// The orchestrator does not depend on a tracing or metrics backend. It
// emits events through the hooks registered here, which default to no-ops.
// The CLI registers [TracingHooks] when tracing is requested.
//
// # Usage
//
// Register hooks at application startup:
//
//	shutdown, err := observability.InitTracer(ctx, "ondemand", os.Stderr)
//	observability.SetBuildHooks(observability.NewTracingHooks())
//	defer shutdown(ctx)
//
// The orchestrator calls hooks to emit events. Start hooks return the
// context to use until the matching completion hook:
//
//	ctx = observability.Build().OnUnitStart(ctx, key)
//	// ... build the unit ...
//	observability.Build().OnUnitComplete(ctx, key, ok, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Build Hooks
// =============================================================================

// BuildHooks receives events from build sessions.
type BuildHooks interface {
	// Session events
	OnSessionStart(ctx context.Context, session string, units int) context.Context
	OnSessionComplete(ctx context.Context, session string, failed int, duration time.Duration)

	// Unit events
	OnUnitStart(ctx context.Context, key string) context.Context
	OnUnitComplete(ctx context.Context, key string, ok bool, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from completed set operations.
type StoreHooks interface {
	// OnLookup records a completed set lookup.
	OnLookup(ctx context.Context, key string, hit bool)

	// OnAdd records a unit added to the completed set.
	OnAdd(ctx context.Context, key string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnSessionStart(ctx context.Context, _ string, _ int) context.Context {
	return ctx
}
func (NoopBuildHooks) OnSessionComplete(context.Context, string, int, time.Duration) {}
func (NoopBuildHooks) OnUnitStart(ctx context.Context, _ string) context.Context     { return ctx }
func (NoopBuildHooks) OnUnitComplete(context.Context, string, bool, time.Duration, error) {
}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLookup(context.Context, string, bool) {}
func (NoopStoreHooks) OnAdd(context.Context, string)          {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	buildHooks BuildHooks = NoopBuildHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
	hooksMu    sync.RWMutex
)

// SetBuildHooks registers custom build hooks.
// This should be called once at application startup before any build session.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
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
	buildHooks = NoopBuildHooks{}
	storeHooks = NoopStoreHooks{}
}
