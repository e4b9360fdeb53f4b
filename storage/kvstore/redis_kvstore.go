package kvstore

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix used when none is given.
const DefaultRedisPrefix = "fireorm"

// RedisKVStore stores each collection as one Redis hash named
// "<prefix>:<collection>" whose fields are document keys and whose values
// are JSON documents. It lets several processes share one offline store.
type RedisKVStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis creates a client for addr.
func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisKVStore wraps rdb. An empty prefix selects DefaultRedisPrefix.
func NewRedisKVStore(rdb *redis.Client, prefix string) *RedisKVStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisKVStore{rdb: rdb, prefix: prefix}
}

func (s *RedisKVStore) hashKey(collection string) string {
	return s.prefix + ":" + collection
}

func (s *RedisKVStore) Put(ctx context.Context, collection, key string, val StoredValue) error {
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
	return s.rdb.HSet(ctx, s.hashKey(collection), key, b).Err()
}

func (s *RedisKVStore) Get(ctx context.Context, collection, key string) (StoredValue, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	raw, err := s.rdb.HGet(ctx, s.hashKey(collection), key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeValue(raw)
}

func (s *RedisKVStore) GetAll(ctx context.Context, collection string) (map[string]StoredValue, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	all, err := s.rdb.HGetAll(ctx, s.hashKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	result := make(map[string]StoredValue, len(all))
	for key, raw := range all {
		val, err := decodeValue([]byte(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "kvstore: %s/%s", collection, key)
		}
		result[key] = val
	}
	return result, nil
}

func (s *RedisKVStore) Delete(ctx context.Context, collection, key string) (bool, error) {
	if err := checkCollection(collection); err != nil {
		return false, err
	}
	n, err := s.rdb.HDel(ctx, s.hashKey(collection), key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Collections scans for hashes under the prefix. Redis drops empty hashes,
// so every name returned holds at least one document.
func (s *RedisKVStore) Collections(ctx context.Context) ([]string, error) {
	pattern := s.prefix + ":*"
	names := []string{}
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix+":"))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (s *RedisKVStore) Close() error {
	return s.rdb.Close()
}

var _ KVStore = (*RedisKVStore)(nil)
