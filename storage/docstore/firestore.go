package docstore

import (
	"context"
	"log/slog"
	"os"
	"slices"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aqua777/go-fireorm/schema"
)

const countAlias = "all"

// FirestoreStore is the live DocumentStore backed by a Firestore client.
// Errors from the client are returned unmodified, except NotFound on a
// single get, which becomes nil, nil.
type FirestoreStore struct {
	client *firestore.Client
	logger *slog.Logger
}

// FirestoreOption is a functional option for FirestoreStore.
type FirestoreOption func(*FirestoreStore)

// WithFirestoreLogger sets the logger for store calls.
func WithFirestoreLogger(logger *slog.Logger) FirestoreOption {
	return func(s *FirestoreStore) {
		s.logger = logger
	}
}

// NewFirestoreClient creates a client for projectID. An empty databaseID
// selects the default database. FIRESTORE_EMULATOR_HOST is honoured by the
// client library.
func NewFirestoreClient(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*firestore.Client, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "docstore: connect to firestore project %q", projectID)
	}
	return client, nil
}

// NewFirestoreStore wraps client. Close closes the client.
func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	s := &FirestoreStore{
		client: client,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying Firestore client.
func (s *FirestoreStore) Client() *firestore.Client {
	return s.client
}

func (s *FirestoreStore) GetDocument(ctx context.Context, collection, id string) (schema.Fields, error) {
	s.logger.Debug("firestore get", "collection", collection, "id", id)
	if id == "" {
		return nil, nil
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snapshotFields(snap), nil
}

func (s *FirestoreStore) GetDocuments(ctx context.Context, collection string, ids []string) ([]schema.Fields, error) {
	s.logger.Debug("firestore get many", "collection", collection, "count", len(ids))
	coll := s.client.Collection(collection)
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			refs = append(refs, coll.Doc(id))
		}
	}
	if len(refs) == 0 {
		return []schema.Fields{}, nil
	}
	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Fields, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Exists() {
			docs = append(docs, snapshotFields(snap))
		}
	}
	return docs, nil
}

func (s *FirestoreStore) QueryCollection(ctx context.Context, collection string, q Query) ([]schema.Fields, error) {
	s.logger.Debug("firestore query", "collection", collection, "filters", len(q.Filters), "offset", q.Offset, "limit", q.Limit)
	fq, err := s.buildQuery(collection, q)
	if err != nil {
		return nil, err
	}
	iter := fq.Documents(ctx)
	defer iter.Stop()

	docs := []schema.Fields{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, snapshotFields(snap))
	}
	return docs, nil
}

func (s *FirestoreStore) ListCollection(ctx context.Context, collection string) ([]schema.Fields, error) {
	return s.QueryCollection(ctx, collection, Query{})
}

func (s *FirestoreStore) CountDocuments(ctx context.Context, collection string, q Query) (int, error) {
	s.logger.Debug("firestore count", "collection", collection, "filters", len(q.Filters))
	fq, err := s.buildQuery(collection, q)
	if err != nil {
		return 0, err
	}
	res, err := fq.NewAggregationQuery().WithCount(countAlias).Get(ctx)
	if err != nil {
		return 0, err
	}
	switch v := res[countAlias].(type) {
	case *firestorepb.Value:
		return int(v.GetIntegerValue()), nil
	case int64:
		return int(v), nil
	default:
		return 0, errors.Errorf("docstore: unexpected count result %T", v)
	}
}

// buildQuery translates q into a Firestore query on collection.
func (s *FirestoreStore) buildQuery(collection string, q Query) (firestore.Query, error) {
	if err := q.Validate(); err != nil {
		return firestore.Query{}, err
	}
	return translateQuery(s.client.Collection(collection).Query, q), nil
}

func translateQuery(fq firestore.Query, q Query) firestore.Query {
	for _, f := range q.Filters {
		fq = fq.Where(f.Path, string(f.Op), f.Value)
	}
	if q.Offset > 0 {
		fq = fq.Offset(q.Offset)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func (s *FirestoreStore) AddDocument(ctx context.Context, collection string, data schema.Fields) (WriteResult, error) {
	s.logger.Debug("firestore add", "collection", collection)
	doc := resolveSentinels(data, firestore.ServerTimestamp)
	delete(doc, schema.FieldID)
	ref, wr, err := s.client.Collection(collection).Add(ctx, doc)
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: ref.ID, UpdateTime: wr.UpdateTime}, nil
}

func (s *FirestoreStore) UpdateDocument(ctx context.Context, collection, id string, data schema.Fields) (WriteResult, error) {
	s.logger.Debug("firestore update", "collection", collection, "id", id)
	if id == "" {
		return WriteResult{}, errors.New("docstore: update requires a document id")
	}
	doc := resolveSentinels(data, firestore.ServerTimestamp)
	delete(doc, schema.FieldID)
	wr, err := s.client.Collection(collection).Doc(id).Set(ctx, doc, firestore.MergeAll)
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: id, UpdateTime: wr.UpdateTime}, nil
}

func (s *FirestoreStore) DeleteDocument(ctx context.Context, collection, id string) error {
	s.logger.Debug("firestore delete", "collection", collection, "id", id)
	if id == "" {
		return nil
	}
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

// Collections lists the root collections in ascending order.
func (s *FirestoreStore) Collections(ctx context.Context) ([]string, error) {
	iter := s.client.Collections(ctx)
	names := []string{}
	for {
		coll, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, coll.ID)
	}
	slices.Sort(names)
	return names, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// snapshotFields returns the document data with the store-assigned id,
// which overrides any "id" field stored in the document.
func snapshotFields(snap *firestore.DocumentSnapshot) schema.Fields {
	return withID(snap.Data(), snap.Ref.ID)
}

var (
	_ DocumentStore    = (*FirestoreStore)(nil)
	_ CollectionLister = (*FirestoreStore)(nil)
)
