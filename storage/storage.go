// Package storage opens the document store selected by configuration and
// seeds stores from fixture files.
package storage

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/aqua777/go-fireorm/config"
	"github.com/aqua777/go-fireorm/storage/docstore"
	"github.com/aqua777/go-fireorm/storage/kvstore"
)

// StorageContext holds the document store chosen at open time.
type StorageContext struct {
	// DocStore is the live or offline adapter.
	DocStore docstore.DocumentStore
	// Config is the configuration the store was opened with.
	Config config.Config

	engine kvstore.KVStore
}

type openOptions struct {
	logger        *slog.Logger
	clientOptions []option.ClientOption
	kvOptions     []docstore.KVDocumentStoreOption
}

// Option configures Open.
type Option func(*openOptions)

// WithLogger sets the logger passed to the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		o.logger = logger
	}
}

// WithClientOptions adds options for the Firestore client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *openOptions) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

// WithKVOptions adds options for the offline store, such as a fixed clock.
func WithKVOptions(opts ...docstore.KVDocumentStoreOption) Option {
	return func(o *openOptions) {
		o.kvOptions = append(o.kvOptions, opts...)
	}
}

// Open validates cfg and builds the store it selects. cfg.TestMode is read
// here and nowhere else: the offline adapter is built over the configured
// engine and seeded with cfg.Offline.Fixtures; otherwise a Firestore client
// is created.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*StorageContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &openOptions{logger: slog.New(slog.NewJSONHandler(os.Stdout, nil))}
	for _, opt := range opts {
		opt(o)
	}

	if !cfg.TestMode {
		return openLive(ctx, cfg, o)
	}

	engine, err := OpenEngine(cfg.Offline)
	if err != nil {
		return nil, err
	}
	kvOpts := append([]docstore.KVDocumentStoreOption{docstore.WithLogger(o.logger)}, o.kvOptions...)
	sc := &StorageContext{
		DocStore: docstore.NewKVDocumentStore(engine, kvOpts...),
		Config:   cfg,
		engine:   engine,
	}
	if cfg.Offline.Fixtures != "" {
		n, err := LoadFixtures(ctx, sc.DocStore, cfg.Offline.Fixtures)
		if err != nil {
			sc.Close()
			return nil, err
		}
		o.logger.Info("fixtures loaded", "path", cfg.Offline.Fixtures, "documents", n)
	}
	return sc, nil
}

func openLive(ctx context.Context, cfg config.Config, o *openOptions) (*StorageContext, error) {
	clientOpts := o.clientOptions
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := docstore.NewFirestoreClient(ctx, cfg.ProjectID, cfg.DatabaseID, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &StorageContext{
		DocStore: docstore.NewFirestoreStore(client, docstore.WithFirestoreLogger(o.logger)),
		Config:   cfg,
	}, nil
}

// OpenEngine builds the kvstore engine named by cfg.Backend.
func OpenEngine(cfg config.OfflineConfig) (kvstore.KVStore, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return kvstore.NewSimpleKVStore(), nil
	case config.BackendFile:
		return kvstore.NewFileKVStore(cfg.Path)
	case config.BackendSQLite:
		return kvstore.NewSQLiteKVStore(cfg.Path)
	case config.BackendRedis:
		rdb := kvstore.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return kvstore.NewRedisKVStore(rdb, cfg.RedisPrefix), nil
	default:
		return nil, errors.Errorf("storage: unknown offline backend %q", cfg.Backend)
	}
}

// Engine returns the kvstore engine behind the offline store, or nil in
// live mode.
func (sc *StorageContext) Engine() kvstore.KVStore {
	return sc.engine
}

// Collections lists the collections in the store.
func (sc *StorageContext) Collections(ctx context.Context) ([]string, error) {
	lister, ok := sc.DocStore.(docstore.CollectionLister)
	if !ok {
		return nil, errors.New("storage: store cannot list collections")
	}
	return lister.Collections(ctx)
}

// Persist writes a snapshot of the offline store to persistPath. It fails
// for engines that cannot be snapshotted.
func (sc *StorageContext) Persist(ctx context.Context, persistPath string) error {
	p, ok := sc.engine.(kvstore.PersistableKVStore)
	if !ok {
		return errors.New("storage: store does not support snapshots")
	}
	return p.Persist(ctx, persistPath)
}

// Close closes the store.
func (sc *StorageContext) Close() error {
	return sc.DocStore.Close()
}
