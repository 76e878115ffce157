package catalog

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const DefaultSnapshotKey = "watchshop:catalog:snapshot"

// RedisSnapshotStore keeps the latest snapshot under a single key with no TTL.
type RedisSnapshotStore struct {
	rdb *redis.Client
	key string
}

func NewRedisSnapshotStore(rdb *redis.Client, key string) *RedisSnapshotStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisSnapshotStore{rdb: rdb, key: key}
}

func (s *RedisSnapshotStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.rdb.Ping(ctx).Err()
	})
}

func (s *RedisSnapshotStore) Save(ctx context.Context, body []byte) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.rdb.Set(ctx, s.key, body, 0).Err()
	})
}

func (s *RedisSnapshotStore) Load(ctx context.Context) ([]byte, bool, error) {
	var body []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		b, err := s.rdb.Get(ctx, s.key).Bytes()
		body = b
		return err
	})

	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}
