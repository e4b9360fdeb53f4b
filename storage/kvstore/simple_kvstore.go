package kvstore

import (
	"context"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// DataType maps collection names to their key-value pairs.
type DataType map[string]map[string]StoredValue

// SimpleKVStore is an in-memory engine guarded by a single RWMutex.
// It needs no network or external process.
type SimpleKVStore struct {
	mu   sync.RWMutex
	data DataType

	// onChange runs after every write with the write lock held.
	onChange func() error
}

// NewSimpleKVStore creates an empty SimpleKVStore.
func NewSimpleKVStore() *SimpleKVStore {
	return &SimpleKVStore{data: make(DataType)}
}

// NewSimpleKVStoreWithData creates a SimpleKVStore seeded with a normalized copy of data.
func NewSimpleKVStoreWithData(data DataType) (*SimpleKVStore, error) {
	s := NewSimpleKVStore()
	for collection, docs := range data {
		for key, val := range docs {
			if err := s.Put(context.Background(), collection, key, val); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *SimpleKVStore) Put(ctx context.Context, collection, key string, val StoredValue) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}
	norm, err := Normalize(val)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.data[collection]
	if !ok {
		docs = make(map[string]StoredValue)
		s.data[collection] = docs
	}
	docs[key] = norm
	return s.changed()
}

func (s *SimpleKVStore) Get(ctx context.Context, collection, key string) (StoredValue, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[collection][key]
	if !ok {
		return nil, nil
	}
	return clone(val), nil
}

func (s *SimpleKVStore) GetAll(ctx context.Context, collection string) (map[string]StoredValue, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.data[collection]
	result := make(map[string]StoredValue, len(docs))
	for k, v := range docs {
		result[k] = clone(v)
	}
	return result, nil
}

func (s *SimpleKVStore) Delete(ctx context.Context, collection, key string) (bool, error) {
	if err := checkCollection(collection); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.data[collection]
	if _, ok := docs[key]; !ok {
		return false, nil
	}
	delete(docs, key)
	if len(docs) == 0 {
		delete(s.data, collection)
	}
	return true, s.changed()
}

func (s *SimpleKVStore) Collections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data)), nil
}

// Close is a no-op.
func (s *SimpleKVStore) Close() error {
	return nil
}

// Persist writes a JSON snapshot of the store to persistPath.
func (s *SimpleKVStore) Persist(ctx context.Context, persistPath string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return writeSnapshot(persistPath, s.data)
}

// ToDict returns a deep copy of the internal data.
func (s *SimpleKVStore) ToDict() DataType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(DataType, len(s.data))
	for collection, docs := range s.data {
		result[collection] = make(map[string]StoredValue, len(docs))
		for k, v := range docs {
			result[collection][k] = clone(v)
		}
	}
	return result
}

func (s *SimpleKVStore) changed() error {
	if s.onChange == nil {
		return nil
	}
	return s.onChange()
}

// FromPersistPath loads a SimpleKVStore from a snapshot written by Persist.
// A missing file yields an empty store.
func FromPersistPath(ctx context.Context, persistPath string) (*SimpleKVStore, error) {
	s := NewSimpleKVStore()
	data, err := readSnapshot(persistPath)
	if err != nil {
		return nil, err
	}
	if data != nil {
		s.data = data
	}
	return s, nil
}

func writeSnapshot(path string, data DataType) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readSnapshot(path string) (DataType, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var data DataType
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	for collection, docs := range data {
		if len(docs) == 0 {
			delete(data, collection)
		}
	}
	return data, nil
}

var (
	_ KVStore            = (*SimpleKVStore)(nil)
	_ PersistableKVStore = (*SimpleKVStore)(nil)
)
