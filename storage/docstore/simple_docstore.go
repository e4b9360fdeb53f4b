package docstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aqua777/go-fireorm/storage/kvstore"
)

// SimpleDocumentStore is a KVDocumentStore over an in-memory SimpleKVStore
// that can be snapshotted to and restored from a JSON file.
type SimpleDocumentStore struct {
	*KVDocumentStore
	simple *kvstore.SimpleKVStore
}

// NewSimpleDocumentStore creates an empty in-memory store.
func NewSimpleDocumentStore(opts ...KVDocumentStoreOption) *SimpleDocumentStore {
	return wrapSimple(kvstore.NewSimpleKVStore(), opts...)
}

func wrapSimple(kv *kvstore.SimpleKVStore, opts ...KVDocumentStoreOption) *SimpleDocumentStore {
	return &SimpleDocumentStore{
		KVDocumentStore: NewKVDocumentStore(kv, opts...),
		simple:          kv,
	}
}

// Persist writes every collection to persistPath.
func (s *SimpleDocumentStore) Persist(ctx context.Context, persistPath string) error {
	if err := s.simple.Persist(ctx, persistPath); err != nil {
		return errors.Wrapf(err, "docstore: persist to %s", persistPath)
	}
	return nil
}

// FromPersistPath restores a store written by Persist. A missing file
// yields an empty store.
func FromPersistPath(ctx context.Context, persistPath string, opts ...KVDocumentStoreOption) (*SimpleDocumentStore, error) {
	kv, err := kvstore.FromPersistPath(ctx, persistPath)
	if err != nil {
		return nil, errors.Wrapf(err, "docstore: load %s", persistPath)
	}
	return wrapSimple(kv, opts...), nil
}

// ToDict returns a copy of every stored document, keyed by collection and id.
func (s *SimpleDocumentStore) ToDict() kvstore.DataType {
	return s.simple.ToDict()
}

// FromDict creates a store seeded with data.
func FromDict(data kvstore.DataType, opts ...KVDocumentStoreOption) (*SimpleDocumentStore, error) {
	kv, err := kvstore.NewSimpleKVStoreWithData(data)
	if err != nil {
		return nil, err
	}
	return wrapSimple(kv, opts...), nil
}
