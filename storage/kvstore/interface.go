// Package kvstore provides the storage engines behind the offline document store.
//
// An engine maps collection -> key -> StoredValue. Values are normalized
// through JSON on the way in, so every engine hands back the same shapes:
// numbers as float64, timestamps as RFC 3339 strings, lists as []interface{}.
package kvstore

import (
	"context"

	"github.com/pkg/errors"
)

// StoredValue is a single document as held by an engine.
type StoredValue map[string]interface{}

var (
	// ErrEmptyCollection is returned when an operation is called without a collection.
	ErrEmptyCollection = errors.New("kvstore: collection must not be empty")

	// ErrEmptyKey is returned when a write is called without a key.
	ErrEmptyKey = errors.New("kvstore: key must not be empty")
)

// KVStore is the interface for collection-scoped key-value engines.
type KVStore interface {
	// Put stores val under key in collection, replacing any previous value.
	Put(ctx context.Context, collection, key string, val StoredValue) error

	// Get retrieves a value by key. Returns nil if the key does not exist.
	Get(ctx context.Context, collection, key string) (StoredValue, error)

	// GetAll retrieves every key-value pair in collection.
	GetAll(ctx context.Context, collection string) (map[string]StoredValue, error)

	// Delete removes key from collection.
	// Returns true if the key was deleted, false if it did not exist.
	Delete(ctx context.Context, collection, key string) (bool, error)

	// Collections lists the non-empty collections in ascending order.
	Collections(ctx context.Context) ([]string, error)

	// Close releases any resources held by the engine.
	Close() error
}

// PersistableKVStore is an engine that can write a snapshot of itself to disk.
type PersistableKVStore interface {
	KVStore

	// Persist saves the store to the specified path.
	Persist(ctx context.Context, persistPath string) error
}

func checkCollection(collection string) error {
	if collection == "" {
		return ErrEmptyCollection
	}
	return nil
}

func checkKey(collection, key string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
