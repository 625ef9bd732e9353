package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the redis client used for short-lived coordination keys.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Acquire takes a best-effort lock via SETNX. The TTL bounds how long a
// crashed holder can keep it.
func (s *Store) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, 1, ttl).Result()
}

func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
