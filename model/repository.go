// Package model maps typed records to document store collections.
//
// A record type embeds schema.Model and implements schema.Record. A
// Repository for it resolves the collection name once and performs every
// read and write through the DocumentStore it was built with, so the same
// code runs against Firestore and against the offline store.
package model

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/aqua777/go-fireorm/callbacks"
	"github.com/aqua777/go-fireorm/schema"
	"github.com/aqua777/go-fireorm/storage/docstore"
)

// ErrMissingID is returned when an operation needs a persisted record and
// the record has no id.
var ErrMissingID = errors.New("model: record has no id")

// RecordPtr is satisfied by *T when *T implements schema.Record.
type RecordPtr[T any] interface {
	*T
	schema.Record
}

// Repository reads and writes records of type T in one collection.
type Repository[T any, PT RecordPtr[T]] struct {
	store      docstore.DocumentStore
	collection string
	callbacks  *callbacks.CallbackManager
	logger     *slog.Logger
}

// NewRepository creates a Repository over store.
func NewRepository[T any, PT RecordPtr[T]](store docstore.DocumentStore, opts ...RepositoryOption) *Repository[T, PT] {
	o := &repositoryOptions{logger: slog.New(slog.NewJSONHandler(os.Stdout, nil))}
	for _, opt := range opts {
		opt(o)
	}
	if o.collection == "" {
		o.collection = CollectionName[T, PT]()
	}
	return &Repository[T, PT]{
		store:      store,
		collection: o.collection,
		callbacks:  o.callbacks,
		logger:     o.logger,
	}
}

// Collection returns the collection name.
func (r *Repository[T, PT]) Collection() string {
	return r.collection
}

// Store returns the underlying document store.
func (r *Repository[T, PT]) Store() docstore.DocumentStore {
	return r.store
}

// GetByID fetches one record. It returns nil, nil if the document does not exist.
func (r *Repository[T, PT]) GetByID(ctx context.Context, id string) (PT, error) {
	var rec PT
	err := r.event(callbacks.CBEventTypeGet, map[string]interface{}{string(callbacks.EventPayloadID): id}, func() (map[string]interface{}, error) {
		doc, err := r.store.GetDocument(ctx, r.collection, id)
		if err != nil || doc == nil {
			return countPayload(0), err
		}
		rec, err = r.decode(doc)
		return countPayload(1), err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByIDs fetches several records in the order of ids, omitting ids that
// do not exist.
func (r *Repository[T, PT]) GetByIDs(ctx context.Context, ids []string) ([]PT, error) {
	var recs []PT
	err := r.event(callbacks.CBEventTypeGet, map[string]interface{}{string(callbacks.EventPayloadIDs): len(ids)}, func() (map[string]interface{}, error) {
		docs, err := r.store.GetDocuments(ctx, r.collection, ids)
		if err != nil {
			return nil, err
		}
		recs, err = r.decodeAll(docs)
		return countPayload(len(recs)), err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// GetPage returns the 1-indexed page of records matching opts, in document
// id order. Filters apply before the page window. page and pageSize must be
// positive; otherwise a validation.ValidationErrors is returned.
func (r *Repository[T, PT]) GetPage(ctx context.Context, page, pageSize int, opts ...QueryOption) ([]PT, error) {
	q, err := buildQuery(opts).Page(page, pageSize)
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		string(callbacks.EventPayloadPage):     page,
		string(callbacks.EventPayloadPageSize): pageSize,
		string(callbacks.EventPayloadFilters):  len(q.Filters),
	}
	var recs []PT
	err = r.event(callbacks.CBEventTypeQuery, payload, func() (map[string]interface{}, error) {
		docs, err := r.store.QueryCollection(ctx, r.collection, q)
		if err != nil {
			return nil, err
		}
		recs, err = r.decodeAll(docs)
		return countPayload(len(recs)), err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// GetAll returns every record in the collection.
func (r *Repository[T, PT]) GetAll(ctx context.Context) ([]PT, error) {
	var recs []PT
	err := r.event(callbacks.CBEventTypeQuery, map[string]interface{}{}, func() (map[string]interface{}, error) {
		docs, err := r.store.ListCollection(ctx, r.collection)
		if err != nil {
			return nil, err
		}
		recs, err = r.decodeAll(docs)
		return countPayload(len(recs)), err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Count returns the number of records matching opts.
func (r *Repository[T, PT]) Count(ctx context.Context, opts ...QueryOption) (int, error) {
	q := buildQuery(opts)
	var n int
	err := r.event(callbacks.CBEventTypeQuery, map[string]interface{}{string(callbacks.EventPayloadFilters): len(q.Filters)}, func() (map[string]interface{}, error) {
		var err error
		n, err = r.store.CountDocuments(ctx, r.collection, q)
		return countPayload(n), err
	})
	return n, err
}

// Save writes rec. A record without an id, or any record when WithNewID is
// given, is inserted under a new id with created_at and updated_at set to
// the commit time. Otherwise the record's fields are merged into its
// existing document and only updated_at is refreshed. The record's id and
// timestamps are updated in place.
func (r *Repository[T, PT]) Save(ctx context.Context, rec PT, opts ...SaveOption) error {
	o := &saveOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return r.save(ctx, rec, o)
}

// save writes rec. With keepCreatedAt set, an update also writes the
// record's created_at, for records that were moved to a new id.
func (r *Repository[T, PT]) save(ctx context.Context, rec PT, o *saveOptions) error {
	m := rec.GetModel()
	insert := m.ID == "" || o.newID
	payload := map[string]interface{}{
		string(callbacks.EventPayloadID):     m.ID,
		string(callbacks.EventPayloadInsert): insert,
	}
	return r.event(callbacks.CBEventTypeSave, payload, func() (map[string]interface{}, error) {
		fields := rec.ToFields().Without(schema.ReservedFields...)
		fields[schema.FieldUpdatedAt] = docstore.ServerTimestamp

		var res docstore.WriteResult
		var err error
		if insert {
			fields[schema.FieldCreatedAt] = docstore.ServerTimestamp
			res, err = r.store.AddDocument(ctx, r.collection, fields)
		} else {
			if o.keepCreatedAt && m.CreatedAt != nil {
				fields[schema.FieldCreatedAt] = *m.CreatedAt
			}
			res, err = r.store.UpdateDocument(ctx, r.collection, m.ID, fields)
		}
		if err != nil {
			return nil, err
		}
		m.ID = res.ID
		m.Stamp(res.UpdateTime, insert)
		return map[string]interface{}{string(callbacks.EventPayloadID): res.ID}, nil
	})
}

// Delete removes the document of rec. Deleting a document that does not
// exist is not an error; a record without an id is. rec itself is left as is.
func (r *Repository[T, PT]) Delete(ctx context.Context, rec PT) error {
	id := rec.GetModel().ID
	return r.event(callbacks.CBEventTypeDelete, map[string]interface{}{string(callbacks.EventPayloadID): id}, func() (map[string]interface{}, error) {
		if id == "" {
			return nil, errors.Wrapf(ErrMissingID, "delete from %s", r.collection)
		}
		return nil, r.store.DeleteDocument(ctx, r.collection, id)
	})
}

// Merge applies update to rec and then saves the whole record.
//
// Keys named by Exclude are skipped, created_at is always skipped and id is
// skipped unless OverwriteID is given. The remaining keys are decoded with
// rec's own FromFields; a key it does not read is an unknown field. If
// decoding fails rec is left unchanged and nothing is written. A record
// moved to a new id keeps its created_at in the new document.
func (r *Repository[T, PT]) Merge(ctx context.Context, rec PT, update schema.Fields, opts ...MergeOption) error {
	o := &mergeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	exclude := append([]string{schema.FieldCreatedAt}, o.exclude...)
	if !o.overwriteID {
		exclude = append(exclude, schema.FieldID)
	}
	patch := update.Without(exclude...)

	payload := map[string]interface{}{
		string(callbacks.EventPayloadID):   rec.GetModel().ID,
		string(callbacks.EventPayloadKeys): patch.Keys(),
	}
	return r.event(callbacks.CBEventTypeMerge, payload, func() (map[string]interface{}, error) {
		fromID := rec.GetModel().ID
		merged := *rec
		if err := schema.DecodePartial(PT(&merged), patch); err != nil {
			return nil, errors.Wrapf(err, "merge into %s/%s", r.collection, fromID)
		}
		*rec = merged
		moved := fromID != "" && rec.GetModel().ID != fromID
		if err := r.save(ctx, rec, &saveOptions{keepCreatedAt: moved}); err != nil {
			return nil, err
		}
		return map[string]interface{}{string(callbacks.EventPayloadID): rec.GetModel().ID}, nil
	})
}

// decode rebuilds a record from a stored document.
func (r *Repository[T, PT]) decode(doc schema.Fields) (PT, error) {
	rec := PT(new(T))
	if err := schema.Decode(rec, doc); err != nil {
		id, _ := doc[schema.FieldID].(string)
		r.logger.Warn("document does not decode", "collection", r.collection, "id", id, "error", err)
		return nil, errors.Wrapf(err, "decode %s/%s", r.collection, id)
	}
	return rec, nil
}

func (r *Repository[T, PT]) decodeAll(docs []schema.Fields) ([]PT, error) {
	recs := make([]PT, 0, len(docs))
	for _, doc := range docs {
		rec, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (r *Repository[T, PT]) event(eventType callbacks.CBEventType, payload map[string]interface{}, fn func() (map[string]interface{}, error)) error {
	payload[string(callbacks.EventPayloadCollection)] = r.collection
	return r.callbacks.WithEvent(eventType, payload, fn)
}

func countPayload(n int) map[string]interface{} {
	return map[string]interface{}{string(callbacks.EventPayloadCount): n}
}
