// Package snapshotcache persists history snapshots in Redis so a user's
// window survives server restarts without a full log replay on first touch.
package snapshotcache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keyPrefix versions the snapshot payload format. Bump it when the snapshot
// JSON changes incompatibly and old entries should be ignored.
const keyPrefix = "habito:snapshot:v1:"

// DefaultTTL is how long a snapshot lives without being rewritten.
const DefaultTTL = 24 * time.Hour

// Cache is the snapshot persistence interface used by the session manager.
type Cache interface {
	Load(ctx context.Context, userID uuid.UUID) ([]byte, error)
	Save(ctx context.Context, userID uuid.UUID, data []byte) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// RedisCache implements Cache on a Redis client.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheWithClient wraps an existing client, mainly for tests.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func snapshotKey(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// Load returns the cached snapshot bytes, or nil when no snapshot exists.
func (c *RedisCache) Load(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	data, err := c.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return data, nil
}

// Save writes the snapshot bytes with the configured TTL.
func (c *RedisCache) Save(ctx context.Context, userID uuid.UUID, data []byte) error {
	if err := c.client.Set(ctx, snapshotKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Delete drops a user's cached snapshot.
func (c *RedisCache) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
