package docstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/aqua777/go-fireorm/schema"
	"github.com/aqua777/go-fireorm/storage/kvstore"
)

// KVDocumentStore is the offline DocumentStore. It keeps documents in a
// kvstore engine, filters them with a linear scan and pages the result with
// slices. Stored documents never contain the "id" key; reads add it.
// Writes are serialized so a set-merge is atomic, as it is in Firestore.
type KVDocumentStore struct {
	// mu guards the read-modify-write of UpdateDocument against other writes.
	mu     sync.Mutex
	kv     kvstore.KVStore
	newID  IDGenerator
	now    func() time.Time
	logger *slog.Logger
}

// KVDocumentStoreOption is a functional option for KVDocumentStore.
type KVDocumentStoreOption func(*KVDocumentStore)

// WithIDGenerator replaces NewFakeID as the source of new document ids.
func WithIDGenerator(gen IDGenerator) KVDocumentStoreOption {
	return func(s *KVDocumentStore) {
		s.newID = gen
	}
}

// WithClock sets the clock used to resolve ServerTimestamp.
func WithClock(now func() time.Time) KVDocumentStoreOption {
	return func(s *KVDocumentStore) {
		s.now = now
	}
}

// WithLogger sets the logger for store calls.
func WithLogger(logger *slog.Logger) KVDocumentStoreOption {
	return func(s *KVDocumentStore) {
		s.logger = logger
	}
}

// NewKVDocumentStore creates a KVDocumentStore over kv.
func NewKVDocumentStore(kv kvstore.KVStore, opts ...KVDocumentStoreOption) *KVDocumentStore {
	s := &KVDocumentStore{
		kv:     kv,
		newID:  NewFakeID,
		now:    time.Now,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KVStore returns the underlying engine.
func (s *KVDocumentStore) KVStore() kvstore.KVStore {
	return s.kv
}

func (s *KVDocumentStore) GetDocument(ctx context.Context, collection, id string) (schema.Fields, error) {
	s.logger.Debug("docstore get", "collection", collection, "id", id)
	if id == "" {
		return nil, nil
	}
	val, err := s.kv.Get(ctx, collection, id)
	if err != nil || val == nil {
		return nil, err
	}
	return withID(val, id), nil
}

func (s *KVDocumentStore) GetDocuments(ctx context.Context, collection string, ids []string) ([]schema.Fields, error) {
	s.logger.Debug("docstore get many", "collection", collection, "count", len(ids))
	docs := make([]schema.Fields, 0, len(ids))
	for _, id := range ids {
		doc, err := s.GetDocument(ctx, collection, id)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *KVDocumentStore) QueryCollection(ctx context.Context, collection string, q Query) ([]schema.Fields, error) {
	s.logger.Debug("docstore query", "collection", collection, "filters", len(q.Filters), "offset", q.Offset, "limit", q.Limit)
	ids, all, err := s.scan(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	start, end := q.window(len(ids))
	docs := make([]schema.Fields, 0, end-start)
	for _, id := range ids[start:end] {
		docs = append(docs, withID(all[id], id))
	}
	return docs, nil
}

func (s *KVDocumentStore) ListCollection(ctx context.Context, collection string) ([]schema.Fields, error) {
	return s.QueryCollection(ctx, collection, Query{})
}

func (s *KVDocumentStore) CountDocuments(ctx context.Context, collection string, q Query) (int, error) {
	s.logger.Debug("docstore count", "collection", collection, "filters", len(q.Filters))
	ids, _, err := s.scan(ctx, collection, q)
	if err != nil {
		return 0, err
	}
	start, end := q.window(len(ids))
	return end - start, nil
}

// scan returns the ids matching q's filters in ascending order.
func (s *KVDocumentStore) scan(ctx context.Context, collection string, q Query) ([]string, map[string]kvstore.StoredValue, error) {
	m, err := NewMatcher(q)
	if err != nil {
		return nil, nil, err
	}
	all, err := s.kv.GetAll(ctx, collection)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(all))
	for _, id := range slices.Sorted(maps.Keys(all)) {
		ok, err := m.Match(all[id])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "docstore: %s/%s", collection, id)
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, all, nil
}

func (s *KVDocumentStore) AddDocument(ctx context.Context, collection string, data schema.Fields) (WriteResult, error) {
	id := s.newID()
	s.logger.Debug("docstore add", "collection", collection, "id", id)
	now := s.now().UTC()
	doc := resolveSentinels(data, now)
	delete(doc, schema.FieldID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Put(ctx, collection, id, doc); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: id, UpdateTime: now}, nil
}

func (s *KVDocumentStore) UpdateDocument(ctx context.Context, collection, id string, data schema.Fields) (WriteResult, error) {
	s.logger.Debug("docstore update", "collection", collection, "id", id)
	if id == "" {
		return WriteResult{}, errors.New("docstore: update requires a document id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.kv.Get(ctx, collection, id)
	if err != nil {
		return WriteResult{}, err
	}
	now := s.now().UTC()
	patch, err := normalizeDoc(resolveSentinels(data, now))
	if err != nil {
		return WriteResult{}, err
	}
	delete(patch, schema.FieldID)
	merged := mergeDeep(existing, patch)
	if err := s.kv.Put(ctx, collection, id, merged); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: id, UpdateTime: now}, nil
}

func (s *KVDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	s.logger.Debug("docstore delete", "collection", collection, "id", id)
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.kv.Delete(ctx, collection, id)
	return err
}

// Collections lists the non-empty collections in ascending order.
func (s *KVDocumentStore) Collections(ctx context.Context) ([]string, error) {
	return s.kv.Collections(ctx)
}

func (s *KVDocumentStore) Close() error {
	return s.kv.Close()
}

// normalizeDoc converts doc to its JSON shape so nested maps can be merged.
func normalizeDoc(doc map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "docstore: encode document")
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "docstore: decode document")
	}
	return out, nil
}

// mergeDeep sets every key of patch on base. Maps present on both sides are
// merged recursively; anything else in patch replaces the value in base.
func mergeDeep(base, patch map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		pm, pIsMap := v.(map[string]interface{})
		bm, bIsMap := out[k].(map[string]interface{})
		if pIsMap && bIsMap {
			out[k] = mergeDeep(bm, pm)
			continue
		}
		out[k] = v
	}
	return out
}

var (
	_ DocumentStore    = (*KVDocumentStore)(nil)
	_ CollectionLister = (*KVDocumentStore)(nil)
)
