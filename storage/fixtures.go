package storage

import (
	"context"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/aqua777/go-fireorm/schema"
	"github.com/aqua777/go-fireorm/storage/docstore"
)

// Fixtures maps collection -> document id -> fields:
//
//	users:
//	  ann:
//	    name: Ann
//	    tags: [red]
type Fixtures map[string]map[string]schema.Fields

// ReadFixtures decodes fixtures from YAML.
func ReadFixtures(r io.Reader) (Fixtures, error) {
	var f Fixtures
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return Fixtures{}, nil
		}
		return nil, errors.Wrap(err, "storage: decode fixtures")
	}
	if f == nil {
		f = Fixtures{}
	}
	return f, nil
}

// LoadFixtures seeds store from the YAML file at path and returns the
// number of documents written.
func LoadFixtures(ctx context.Context, store docstore.DocumentStore, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "storage: open fixtures %s", path)
	}
	defer file.Close()

	f, err := ReadFixtures(file)
	if err != nil {
		return 0, errors.Wrapf(err, "storage: %s", path)
	}
	return f.Apply(ctx, store)
}

// Apply writes every document with set-merge semantics, in collection and
// id order, and returns the number written.
func (f Fixtures) Apply(ctx context.Context, store docstore.DocumentStore) (int, error) {
	n := 0
	for _, collection := range slices.Sorted(maps.Keys(f)) {
		docs := f[collection]
		for _, id := range slices.Sorted(maps.Keys(docs)) {
			data := docs[id]
			if data == nil {
				data = schema.Fields{}
			}
			if _, err := store.UpdateDocument(ctx, collection, id, data.Without(schema.FieldID)); err != nil {
				return n, errors.Wrapf(err, "storage: fixture %s/%s", collection, id)
			}
			n++
		}
	}
	return n, nil
}

// DumpFixtures reads every document of the given collections and writes
// them as YAML in the format ReadFixtures accepts.
func DumpFixtures(ctx context.Context, store docstore.DocumentStore, collections []string, w io.Writer) error {
	out := Fixtures{}
	for _, collection := range collections {
		docs, err := store.ListCollection(ctx, collection)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			continue
		}
		out[collection] = make(map[string]schema.Fields, len(docs))
		for _, doc := range docs {
			id, _ := doc[schema.FieldID].(string)
			out[collection][id] = doc.Without(schema.FieldID)
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(err, "storage: encode fixtures")
	}
	return enc.Close()
}
