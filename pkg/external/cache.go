package external

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/genegpt-qa-server/internal/domain"
)

// CacheClient caches evidence bundles in Redis so repeated questions
// about the same gene or variant skip the upstream round trips.
type CacheClient struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// cachedBundle wraps an evidence bundle with cache metadata
type cachedBundle struct {
	Bundle    domain.EvidenceBundle `json:"bundle"`
	CachedAt  time.Time             `json:"cached_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// NewCacheClient creates a Redis-backed evidence cache.
func NewCacheClient(config domain.CacheConfig) (*CacheClient, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &CacheClient{
		redis:      client,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// key builds a stable cache key for a lookup kind and its inputs.
func (c *CacheClient) key(kind, geneSymbol, token string) string {
	hash := sha256.Sum256([]byte(geneSymbol + "|" + token))
	return fmt.Sprintf("geneqa:%s:%x", kind, hash[:8])
}

// Get returns a cached bundle when present and fresh. Corrupted or
// expired entries are deleted and reported as a miss.
func (c *CacheClient) Get(ctx context.Context, kind, geneSymbol, token string) (*domain.EvidenceBundle, bool, error) {
	key := c.key(kind, geneSymbol, token)

	raw, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	var cached cachedBundle
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return &cached.Bundle, true, nil
}

// Set stores a bundle under the default TTL.
func (c *CacheClient) Set(ctx context.Context, kind, geneSymbol, token string, bundle domain.EvidenceBundle) error {
	now := time.Now()
	cached := cachedBundle{
		Bundle:    bundle,
		CachedAt:  now,
		ExpiresAt: now.Add(c.defaultTTL),
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.redis.Set(ctx, c.key(kind, geneSymbol, token), raw, c.defaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *CacheClient) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// FlushAll clears the cache. Used by tests and the admin surface.
func (c *CacheClient) FlushAll(ctx context.Context) error {
	return c.redis.FlushAll(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *CacheClient) Close() error {
	return c.redis.Close()
}
