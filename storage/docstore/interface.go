// Package docstore provides the document store seam that repositories call
// through, with a live Firestore adapter and an offline adapter over a
// kvstore engine.
package docstore

import (
	"context"
	"time"

	"github.com/aqua777/go-fireorm/schema"
)

// WriteResult describes a completed write.
type WriteResult struct {
	// ID is the id of the document written.
	ID string
	// UpdateTime is the commit time. ServerTimestamp values in the write
	// resolved to this time.
	UpdateTime time.Time
}

// DocumentStore is the capability set shared by the live and offline adapters.
//
// Documents returned by every read carry the document id under the "id" key,
// overriding any stored field of that name.
type DocumentStore interface {
	// GetDocument fetches one document. Returns nil, nil if it does not exist.
	GetDocument(ctx context.Context, collection, id string) (schema.Fields, error)

	// GetDocuments fetches several documents in the order of ids.
	// Missing ids are omitted.
	GetDocuments(ctx context.Context, collection string, ids []string) ([]schema.Fields, error)

	// QueryCollection returns the documents matching q in ascending id order.
	QueryCollection(ctx context.Context, collection string, q Query) ([]schema.Fields, error)

	// ListCollection returns every document in ascending id order.
	ListCollection(ctx context.Context, collection string) ([]schema.Fields, error)

	// CountDocuments returns how many documents QueryCollection would return.
	CountDocuments(ctx context.Context, collection string, q Query) (int, error)

	// AddDocument creates a document under a newly generated id.
	AddDocument(ctx context.Context, collection string, data schema.Fields) (WriteResult, error)

	// UpdateDocument merges data into the document, creating it if needed.
	// Nested maps are merged key by key; other values are replaced.
	UpdateDocument(ctx context.Context, collection, id string, data schema.Fields) (WriteResult, error)

	// DeleteDocument removes the document. Deleting a missing id is a no-op.
	DeleteDocument(ctx context.Context, collection, id string) error

	// Close releases the underlying client or engine.
	Close() error
}

// CollectionLister is implemented by stores that can enumerate their
// collections. Both adapters implement it.
type CollectionLister interface {
	Collections(ctx context.Context) ([]string, error)
}

type sentinel string

// ServerTimestamp is a write-time placeholder. Each adapter replaces it with
// the commit time of the write, at any depth of nested maps.
const ServerTimestamp sentinel = "fireorm.ServerTimestamp"

// resolveSentinels returns a copy of data with every ServerTimestamp in it
// or in its nested maps replaced by with.
func resolveSentinels(data map[string]interface{}, with interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch t := v.(type) {
		case sentinel:
			if t == ServerTimestamp {
				out[k] = with
				continue
			}
			out[k] = v
		case schema.Fields:
			out[k] = resolveSentinels(t, with)
		case map[string]interface{}:
			out[k] = resolveSentinels(t, with)
		default:
			out[k] = v
		}
	}
	return out
}

// withID returns doc with its id set under schema.FieldID.
func withID(doc map[string]interface{}, id string) schema.Fields {
	f := schema.Fields(doc)
	if f == nil {
		f = schema.Fields{}
	}
	f[schema.FieldID] = id
	return f
}
