package cache

import (
	"ats-analyzer/internal/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	Db *redis.Client
}

func InitServer(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return c.Db.Set(ctx, key, jsonData, expiration).Err()
}

// Generation returns the counter stored at key, or 0 when it was never bumped.
func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	const op = "cache.Generation"
	n, err := c.Db.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Bump advances the counter at key. Entries written under an older
// generation are never read again and age out with their TTL.
func (c *Cache) Bump(ctx context.Context, key string) error {
	const op = "cache.Bump"
	if err := c.Db.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.Db.Close()
}

// DashboardStatsGenKey holds the generation of a user's dashboard aggregate.
func DashboardStatsGenKey(userID string) string {
	return "dashboard:stats:gen:" + userID
}

// DashboardStatsKey is the key under which a user's dashboard aggregate
// for the given generation lives.
func DashboardStatsKey(userID string, generation int64) string {
	return fmt.Sprintf("dashboard:stats:%s:%d", userID, generation)
}
