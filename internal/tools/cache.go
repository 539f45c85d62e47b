// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tools

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCache keeps the full rendering of the last truncated query per scope.
type ResultCache interface {
	Put(ctx context.Context, scope, text string) error
	// Get returns the cached text and whether one was present.
	Get(ctx context.Context, scope string) (string, bool, error)
}

// MemoryCache is the in-process ResultCache.
type MemoryCache struct {
	mu      sync.Mutex
	results map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{results: make(map[string]string)}
}

func (c *MemoryCache) Put(_ context.Context, scope, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[scope] = text
	return nil
}

func (c *MemoryCache) Get(_ context.Context, scope string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.results[scope]
	return text, ok, nil
}

// RedisConfig configures the shared cache. It is enabled by GPTSQL_REDIS_URL
// so that several gptsql processes on one thread see the same results.
type RedisConfig struct {
	URL          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
	// TTL bounds how long a cached result stays available.
	TTL time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func (cfg RedisConfig) NewRedisCache(ctx context.Context) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// RedisCache stores results under gptsql:results:<scope>.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(scope string) string {
	return "gptsql:results:" + scope
}

func (c *RedisCache) Put(ctx context.Context, scope, text string) error {
	return c.client.Set(ctx, redisKey(scope), text, c.ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, scope string) (string, bool, error) {
	text, err := c.client.Get(ctx, redisKey(scope)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
