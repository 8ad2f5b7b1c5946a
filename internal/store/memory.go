package store

import (
	"context"
	"sync"
)

// Memory is an in-process StatusStore.
type Memory struct {
	mu    sync.RWMutex
	items map[string]Status
	order []string
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]Status)}
}

func (m *Memory) Set(_ context.Context, jobID string, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[jobID]; !ok {
		m.order = append(m.order, jobID)
	}
	m.items[jobID] = st
	return nil
}

func (m *Memory) Get(_ context.Context, jobID string) (Status, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.items[jobID]
	return st, ok, nil
}

// Recent returns up to limit statuses, newest job first.
func (m *Memory) Recent(_ context.Context, limit int) ([]Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.order) {
		limit = len(m.order)
	}
	out := make([]Status, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.items[m.order[i]])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
