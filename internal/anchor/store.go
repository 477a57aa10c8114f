package anchor

import (
	"context"
	"sync"
)

// Store persists learned anchors across runs
type Store interface {
	Load(ctx context.Context) ([]Anchor, error)
	Save(ctx context.Context, a Anchor) error
	Close() error
}

// MemoryStore keeps anchors for the lifetime of the process
type MemoryStore struct {
	mu      sync.Mutex
	anchors []Anchor
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) ([]Anchor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Anchor, len(m.anchors))
	copy(out, m.anchors)
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, a Anchor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.anchors {
		if existing.Series == a.Series && existing.Date == a.Date {
			m.anchors[i] = a
			return nil
		}
	}
	m.anchors = append(m.anchors, a)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
