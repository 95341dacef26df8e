package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-memory KV, mostly for tests.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{docs: make(map[string][]byte)} }

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	return slices.Clone(doc), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *Memory) Close() error { return nil }
