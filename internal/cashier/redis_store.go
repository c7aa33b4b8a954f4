package cashier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStateKey is the Redis key holding the live snapshot.
const DefaultStateKey = "cashier-session"

// RedisStore persists the snapshot as a JSON blob under a single Redis key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore creates a store bound to key. An empty key uses
// DefaultStateKey.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultStateKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis store: marshal snapshot: %w", err)
	}
	// No TTL — the snapshot lives until the next save overwrites it.
	return s.rdb.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisStore) Load(ctx context.Context) (Snapshot, bool, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("redis store: load snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("redis store: decode snapshot: %w", err)
	}
	return snap, true, nil
}
