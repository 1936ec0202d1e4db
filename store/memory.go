package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Memory is a thread-safe in-memory Store.
type Memory struct {
	mu     sync.RWMutex
	runs   map[string]RunRecord
	closed bool
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]RunRecord)}
}

// Save stores a copy of rec.
func (m *Memory) Save(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	rec.State = rec.State.Clone()
	m.runs[rec.ID] = rec
	return nil
}

// Get returns a copy of the run with id.
func (m *Memory) Get(_ context.Context, id string) (RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return RunRecord{}, ErrClosed
	}
	rec, ok := m.runs[id]
	if !ok {
		return RunRecord{}, ErrNotFound
	}
	rec.State = rec.State.Clone()
	return rec, nil
}

// List returns summaries newest first.
func (m *Memory) List(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	recs := make([]RunRecord, 0, len(m.runs))
	for _, rec := range m.runs {
		recs = append(recs, rec)
	}
	slices.SortFunc(recs, func(a, b RunRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]Summary, len(recs))
	for i, rec := range recs {
		out[i] = rec.Summarize()
	}
	return out, nil
}

// Close marks the store closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
