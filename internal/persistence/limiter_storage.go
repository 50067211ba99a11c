package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const limiterKeyPrefix = "limiter:"

// LimiterStorage adapts a go-redis client to fiber.Storage so rate limit
// counters are shared between instances.
type LimiterStorage struct {
	client  *redis.Client
	timeout time.Duration
}

var _ fiber.Storage = (*LimiterStorage)(nil)

// NewLimiterStorage returns nil when Redis is unavailable, which makes the
// limiter middleware fall back to its in-process store.
func (r *Redis) NewLimiterStorage() fiber.Storage {
	if !r.Available() {
		return nil
	}
	return &LimiterStorage{client: r.Client, timeout: time.Second}
}

// Get returns nil, nil for a missing key.
func (s *LimiterStorage) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, limiterKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *LimiterStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Set(ctx, limiterKeyPrefix+key, val, exp).Err()
}

func (s *LimiterStorage) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Del(ctx, limiterKeyPrefix+key).Err()
}

// Reset removes every limiter key.
func (s *LimiterStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, limiterKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client is owned by Redis.
func (s *LimiterStorage) Close() error {
	return nil
}
