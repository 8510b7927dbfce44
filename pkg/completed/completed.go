// Package completed tracks which units have been built successfully during
// a build session.
//
// A [Set] holds versionless unit keys ("groupId:artifactId"). It only grows
// while the orchestrator runs and is shared by every orchestration call of
// a session, so a unit built by one call is skipped by the next. Three
// backends are provided:
//   - [Memory]: one process, the default
//   - [FileSet]: a JSON file, survives separate CLI invocations
//   - [RedisSet]: a Redis set, shared between machines
package completed

import (
	"context"
	"slices"
	"sync"
)

// Set is a set of completed unit keys.
type Set interface {
	// Contains reports whether key has been built.
	Contains(ctx context.Context, key string) (bool, error)

	// Add records key as built. Adding a present key is a no-op.
	Add(ctx context.Context, key string) error

	// Keys returns all keys in sorted order.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every key.
	Clear(ctx context.Context) error
}

// Memory is an in-process [Set]. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewMemory returns a set holding keys.
func NewMemory(keys ...string) *Memory {
	m := &Memory{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		m.keys[k] = struct{}{}
	}
	return m
}

func (m *Memory) Contains(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *Memory) Add(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = make(map[string]struct{})
	}
	m.keys[key] = struct{}{}
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.keys), nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.keys)
	return nil
}

// Len returns the number of keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

func sortedKeys(keys map[string]struct{}) []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

var _ Set = (*Memory)(nil)
