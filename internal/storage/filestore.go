package storage

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a KVS backed by a single JSON file. The whole key space is
// held in memory and rewritten on every Set, which is fine at the scale of
// an on-device wallet.
type FileStore struct {
	mu   sync.RWMutex
	file *os.File
	data map[string]json.RawMessage
	path string
}

func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	fs := &FileStore{file: f, path: path}
	if err := fs.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) Close() error { return fs.file.Close() }

func (fs *FileStore) Path() string { return fs.path }

func (fs *FileStore) load() error {
	info, err := fs.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		fs.data = map[string]json.RawMessage{}
		return fs.flushLocked()
	}
	dec := json.NewDecoder(fs.file)
	data := map[string]json.RawMessage{}
	if err := dec.Decode(&data); err != nil {
		return err
	}
	fs.data = data
	return nil
}

func (fs *FileStore) flushLocked() error {
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	enc := json.NewEncoder(fs.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fs.data); err != nil {
		return err
	}
	// truncate in case new content is shorter
	pos, err := fs.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := fs.file.Truncate(pos); err != nil {
		return err
	}
	return fs.file.Sync()
}

func (fs *FileStore) Get(ctx context.Context, key string, out any) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	raw, ok := fs.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (fs *FileStore) Set(ctx context.Context, key string, val any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	fs.data[key] = raw
	return fs.flushLocked()
}
