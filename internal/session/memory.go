package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Data is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

// Scope returns the scope for sessionID.
func (s *MemoryStore) Scope(sessionID string) Scope {
	return &memoryScope{store: s, id: sessionID}
}

type memoryScope struct {
	store *MemoryStore
	id    string
}

func (m *memoryScope) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	v, ok := m.store.data[m.id][key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *memoryScope) Set(_ context.Context, key string, value []byte) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	values, ok := m.store.data[m.id]
	if !ok {
		values = make(map[string][]byte)
		m.store.data[m.id] = values
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	values[key] = stored
	return nil
}

func (m *memoryScope) Remove(_ context.Context, key string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	delete(m.store.data[m.id], key)
	if len(m.store.data[m.id]) == 0 {
		delete(m.store.data, m.id)
	}
	return nil
}
