// Package secrets stores per-user credentials in a file separate from the
// main ledger store, so it can be wiped or protected independently. Only
// bcrypt hashes touch disk; plaintext never leaves Set or Match.
package secrets

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Store keeps one credential per key. Match compares a candidate against
// the stored credential and reports false when no credential exists.
type Store interface {
	Set(ctx context.Context, key, secret string) error
	Match(ctx context.Context, key, candidate string) (bool, error)
}

type FileStore struct {
	mu     sync.Mutex
	path   string
	hashes map[string]string
}

func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	fs := &FileStore{path: path, hashes: map[string]string{}}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fs.hashes); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (fs *FileStore) Set(ctx context.Context, key, secret string) error {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fs.hashes[key] = string(h)
	return fs.flushLocked()
}

func (fs *FileStore) Match(ctx context.Context, key, candidate string) (bool, error) {
	fs.mu.Lock()
	h, ok := fs.hashes[key]
	fs.mu.Unlock()
	if !ok {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(h), []byte(candidate)) == nil, nil
}

func (fs *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(fs.hashes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.path, raw, 0o600)
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu     sync.Mutex
	hashes map[string]string
	SetErr error
}

func NewMemStore() *MemStore {
	return &MemStore{hashes: map[string]string{}}
}

func (m *MemStore) Set(ctx context.Context, key, secret string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[key] = string(h)
	return nil
}

func (m *MemStore) Match(ctx context.Context, key, candidate string) (bool, error) {
	m.mu.Lock()
	h, ok := m.hashes[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(h), []byte(candidate)) == nil, nil
}
