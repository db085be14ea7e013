package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKickPrefix = "vigil:kick:"

// RedisKickCache is a KickCache backed by redis, relying on native key TTLs.
//
// It exists so a multi-node deployment can share kick marks: a kick issued
// on one node is visible to the request guards on every node. Session
// authority itself stays per-process.
type RedisKickCache struct {
	client *redis.Client
	prefix string
}

// RedisConfig configures the redis kick cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisKickCache connects to redis and verifies the connection.
func NewRedisKickCache(ctx context.Context, cfg RedisConfig) (*RedisKickCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis kick cache: connect: %w", err)
	}

	return &RedisKickCache{client: client, prefix: redisKickPrefix}, nil
}

// Set marks userID as kicked for ttl.
func (c *RedisKickCache) Set(ctx context.Context, userID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+userID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis kick cache: set: %w", err)
	}
	return nil
}

// Exists reports whether a mark is live for userID.
func (c *RedisKickCache) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("redis kick cache: exists: %w", err)
	}
	return n > 0, nil
}

// Purge is a no-op: redis expires keys natively.
func (c *RedisKickCache) Purge(_ context.Context) error { return nil }

// Close releases the redis client.
func (c *RedisKickCache) Close() error { return c.client.Close() }
