package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MemStore is an in-memory KVS used by tests. SetErr, when non-nil, is
// returned by every Set so storage failures can be simulated.
type MemStore struct {
	mu     sync.RWMutex
	data   map[string]json.RawMessage
	SetErr error
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string]json.RawMessage{}}
}

var errSetFailed = errors.New("memstore: set failed")

// FailWrites makes every subsequent Set return an error.
func (m *MemStore) FailWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetErr = errSetFailed
}

func (m *MemStore) Get(ctx context.Context, key string, out any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemStore) Set(ctx context.Context, key string, val any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}
