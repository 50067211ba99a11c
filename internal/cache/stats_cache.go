// Package cache holds short-lived read caches in front of the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const statsKey = "helpdesk:ticket_stats"

// StatsCache stores the dashboard counters.
type StatsCache interface {
	Get(ctx context.Context) (*domain.TicketStats, bool, error)
	Set(ctx context.Context, stats domain.TicketStats) error
	Invalidate(ctx context.Context) error
}

// RedisStatsCache keeps counters as a JSON value with a TTL.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatsCache wraps client. A zero ttl stores without expiry.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context) (*domain.TicketStats, bool, error) {
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading stats cache: %w", err)
	}
	var stats domain.TicketStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decoding stats cache: %w", err)
	}
	return &stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats domain.TicketStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing stats cache: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("invalidating stats cache: %w", err)
	}
	return nil
}

// MemoryStatsCache is the in-process fallback used without Redis.
type MemoryStatsCache struct {
	mu      sync.Mutex
	stats   *domain.TicketStats
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStatsCache creates an empty cache. A nil clock uses time.Now.
func NewMemoryStatsCache(ttl time.Duration, now func() time.Time) *MemoryStatsCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryStatsCache{ttl: ttl, now: now}
}

func (c *MemoryStatsCache) Get(_ context.Context) (*domain.TicketStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats == nil {
		return nil, false, nil
	}
	if c.ttl > 0 && !c.now().Before(c.expires) {
		c.stats = nil
		return nil, false, nil
	}
	stats := *c.stats
	return &stats, true, nil
}

func (c *MemoryStatsCache) Set(_ context.Context, stats domain.TicketStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = &stats
	c.expires = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryStatsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	return nil
}
