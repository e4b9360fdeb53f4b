package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteKVStore keeps every collection in one SQLite table:
//
//	documents(collection, key, data)  PRIMARY KEY (collection, key)
//
// data holds the JSON form of the value.
type SQLiteKVStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteKVStore opens or creates the database at dbPath.
// ":memory:" opens a private in-memory database.
func NewSQLiteKVStore(dbPath string) (*SQLiteKVStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "kvstore: open %s", dbPath)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, err
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (collection, key)
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteKVStore{db: db}, nil
}

func (s *SQLiteKVStore) Put(ctx context.Context, collection, key string, val StoredValue) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}
	if val == nil {
		val = StoredValue{}
	}
	b, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "kvstore: encode value")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, key, data) VALUES (?, ?, ?)
		 ON CONFLICT(collection, key) DO UPDATE SET data = excluded.data`,
		collection, key, string(b),
	)
	return err
}

func (s *SQLiteKVStore) Get(ctx context.Context, collection, key string) (StoredValue, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND key = ?",
		collection, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeValue([]byte(raw))
}

func (s *SQLiteKVStore) GetAll(ctx context.Context, collection string) (map[string]StoredValue, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, "SELECT key, data FROM documents WHERE collection = ?", collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]StoredValue)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		val, err := decodeValue([]byte(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "kvstore: %s/%s", collection, key)
		}
		result[key] = val
	}
	return result, rows.Err()
}

func (s *SQLiteKVStore) Delete(ctx context.Context, collection, key string) (bool, error) {
	if err := checkCollection(collection); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND key = ?",
		collection, key,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteKVStore) Collections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT collection FROM documents ORDER BY collection")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteKVStore) Close() error {
	return s.db.Close()
}

var _ KVStore = (*SQLiteKVStore)(nil)
