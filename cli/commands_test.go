package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-fireorm/config"
	"github.com/aqua777/go-fireorm/storage"
	"github.com/aqua777/go-fireorm/storage/docstore"
)

const fixturesYAML = `
users:
  u1: {name: ann, age: 30, tags: [red]}
  u2: {name: bob, age: 40, tags: [blue]}
  u3: {name: cid, age: 30, tags: [red, blue]}
`

func newTestCommand(t *testing.T) (*StoreCommand, *bytes.Buffer) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sc, err := storage.Open(context.Background(), config.TestConfig(), storage.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { sc.Close() })

	var out bytes.Buffer
	return &StoreCommand{sc: sc, out: &out, logger: logger}, &out
}

func seed(t *testing.T, c *StoreCommand, out *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixturesYAML), 0o644))
	require.NoError(t, c.Seed(context.Background(), []string{path}))
	assert.JSONEq(t, `{"documents":3}`, out.String())
	out.Reset()
}

func TestParseValues(t *testing.T) {
	got, err := parseValues(map[string]string{
		"age":   "30",
		"admin": "true",
		"name":  "ann",
		"tags":  "[red, blue]",
		"empty": "",
	})
	require.NoError(t, err)
	assert.Equal(t, 30, got["age"])
	assert.Equal(t, true, got["admin"])
	assert.Equal(t, "ann", got["name"])
	assert.Equal(t, []interface{}{"red", "blue"}, got["tags"])
	assert.Equal(t, "", got["empty"])

	_, err = parseValues(map[string]string{"bad": "[unclosed"})
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	q, err := buildQuery(map[string]string{"name": "[ann, bob]"}, map[string]string{"tags": "red"})
	require.NoError(t, err)
	require.Len(t, q.Filters, 2)
	assert.Equal(t, docstore.OpIn, q.Filters[0].Op)
	assert.Equal(t, docstore.OpArrayContains, q.Filters[1].Op)
}

func TestStoreCommands(t *testing.T) {
	ctx := context.Background()
	c, out := newTestCommand(t)
	seed(t, c, out)

	t.Run("get", func(t *testing.T) {
		require.NoError(t, c.Get(ctx, "users", []string{"u2", "nope"}))
		var docs []map[string]interface{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "bob", docs[0]["name"])
		out.Reset()
	})

	t.Run("list", func(t *testing.T) {
		q, err := buildQuery(map[string]string{"age": "30"}, nil)
		require.NoError(t, err)
		require.NoError(t, c.List(ctx, "users", q, 1, 1))
		var docs []map[string]interface{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "u1", docs[0]["id"])
		out.Reset()

		assert.Error(t, c.List(ctx, "users", q, 0, 1))
	})

	t.Run("count", func(t *testing.T) {
		q, err := buildQuery(nil, map[string]string{"tags": "blue"})
		require.NoError(t, err)
		require.NoError(t, c.Count(ctx, "users", q))
		assert.JSONEq(t, `{"count":2}`, out.String())
		out.Reset()
	})

	t.Run("collections", func(t *testing.T) {
		require.NoError(t, c.Collections(ctx))
		assert.JSONEq(t, `["users"]`, out.String())
		out.Reset()
	})

	t.Run("dump", func(t *testing.T) {
		require.NoError(t, c.Dump(ctx, nil, "-"))
		fixtures, err := storage.ReadFixtures(bytes.NewReader(out.Bytes()))
		require.NoError(t, err)
		assert.Len(t, fixtures["users"], 3)
		out.Reset()

		path := filepath.Join(t.TempDir(), "dump.yaml")
		require.NoError(t, c.Dump(ctx, []string{"users"}, path))
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, "users", []string{"u1", "nope"}))
		require.NoError(t, c.Count(ctx, "users", docstore.Query{}))
		assert.JSONEq(t, `{"count":2}`, out.String())
		out.Reset()
	})
}
