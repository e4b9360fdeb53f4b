package kvstore

import (
	"context"
	"os"
	"path/filepath"
)

// FileKVStore is a SimpleKVStore that writes itself to a JSON file after
// every change.
type FileKVStore struct {
	*SimpleKVStore
	persistPath string
}

// NewFileKVStore opens the store at persistPath, loading it if the file exists.
func NewFileKVStore(persistPath string) (*FileKVStore, error) {
	if err := os.MkdirAll(filepath.Dir(persistPath), 0755); err != nil {
		return nil, err
	}
	inner, err := FromPersistPath(context.Background(), persistPath)
	if err != nil {
		return nil, err
	}
	f := &FileKVStore{SimpleKVStore: inner, persistPath: persistPath}
	inner.onChange = func() error {
		return writeSnapshot(f.persistPath, inner.data)
	}
	return f, nil
}

// Persist writes the store to persistPath and makes it the new target for
// later writes. An empty path rewrites the current file.
func (f *FileKVStore) Persist(ctx context.Context, persistPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if persistPath != "" {
		f.persistPath = persistPath
	}
	return writeSnapshot(f.persistPath, f.data)
}

// GetPersistPath returns the current persist path.
func (f *FileKVStore) GetPersistPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.persistPath
}

var (
	_ KVStore            = (*FileKVStore)(nil)
	_ PersistableKVStore = (*FileKVStore)(nil)
)
