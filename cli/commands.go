package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aqua777/krait"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/aqua777/go-fireorm/storage"
	"github.com/aqua777/go-fireorm/storage/docstore"
)

// StoreCommand runs one CLI operation against the configured store.
type StoreCommand struct {
	sc     *storage.StorageContext
	out    io.Writer
	logger *slog.Logger
}

// NewStoreCommand opens the store described by the global options.
func NewStoreCommand(ctx context.Context) (*StoreCommand, error) {
	cfg, err := configFromFlags()
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if krait.GetBool(KeyVerbose) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sc, err := storage.Open(ctx, cfg, storage.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	return &StoreCommand{sc: sc, out: os.Stdout, logger: logger}, nil
}

// Close releases the store.
func (c *StoreCommand) Close() error {
	return c.sc.Close()
}

func (c *StoreCommand) Get(ctx context.Context, collection string, ids []string) error {
	docs, err := c.sc.DocStore.GetDocuments(ctx, collection, ids)
	if err != nil {
		return err
	}
	return c.print(docs)
}

func (c *StoreCommand) List(ctx context.Context, collection string, q docstore.Query, page, pageSize int) error {
	q, err := q.Page(page, pageSize)
	if err != nil {
		return err
	}
	docs, err := c.sc.DocStore.QueryCollection(ctx, collection, q)
	if err != nil {
		return err
	}
	return c.print(docs)
}

func (c *StoreCommand) Count(ctx context.Context, collection string, q docstore.Query) error {
	n, err := c.sc.DocStore.CountDocuments(ctx, collection, q)
	if err != nil {
		return err
	}
	return c.print(map[string]int{"count": n})
}

func (c *StoreCommand) Delete(ctx context.Context, collection string, ids []string) error {
	for _, id := range ids {
		if err := c.sc.DocStore.DeleteDocument(ctx, collection, id); err != nil {
			return errors.Wrapf(err, "delete %s/%s", collection, id)
		}
		c.logger.Info("document deleted", "collection", collection, "id", id)
	}
	return nil
}

func (c *StoreCommand) Seed(ctx context.Context, paths []string) error {
	total := 0
	for _, path := range paths {
		n, err := storage.LoadFixtures(ctx, c.sc.DocStore, path)
		if err != nil {
			return err
		}
		total += n
	}
	return c.print(map[string]int{"documents": total})
}

func (c *StoreCommand) Collections(ctx context.Context) error {
	names, err := c.sc.Collections(ctx)
	if err != nil {
		return err
	}
	return c.print(names)
}

// Dump writes the given collections, or all of them, as a fixture file.
func (c *StoreCommand) Dump(ctx context.Context, collections []string, output string) error {
	if len(collections) == 0 {
		all, err := c.sc.Collections(ctx)
		if err != nil {
			return err
		}
		collections = all
	}
	if output == "" || output == "-" {
		return storage.DumpFixtures(ctx, c.sc.DocStore, collections, c.out)
	}
	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "create dump file")
	}
	defer f.Close()
	return storage.DumpFixtures(ctx, c.sc.DocStore, collections, f)
}

func (c *StoreCommand) print(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// buildQuery turns --where and --contains pairs into a query. Values are
// parsed as YAML scalars, so age=30 filters on a number and
// color=[red,blue] on membership.
func buildQuery(where, contains map[string]string) (docstore.Query, error) {
	equal, err := parseValues(where)
	if err != nil {
		return docstore.Query{}, err
	}
	arrayContains, err := parseValues(contains)
	if err != nil {
		return docstore.Query{}, err
	}
	q := docstore.NewQuery(equal, arrayContains)
	return q, q.Validate()
}

func parseValues(pairs map[string]string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(pairs))
	for k, raw := range pairs {
		raw = strings.TrimSpace(raw)
		var v interface{}
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, errors.Wrapf(err, "value of %s", k)
		}
		if v == nil && raw != "null" && raw != "~" {
			v = raw
		}
		out[k] = v
	}
	return out, nil
}

func queryFromFlags() (docstore.Query, error) {
	return buildQuery(krait.GetStringToString(KeyWhere), krait.GetStringToString(KeyContains))
}

// withStore opens the store, runs fn and closes the store.
func withStore(fn func(ctx context.Context, c *StoreCommand) error) error {
	ctx := context.Background()
	c, err := NewStoreCommand(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			c.logger.Warn("close store", "error", cerr)
		}
	}()
	if err := fn(ctx, c); err != nil {
		return errors.Wrap(err, krait.Current().Name)
	}
	return nil
}
