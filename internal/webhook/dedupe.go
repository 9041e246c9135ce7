package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const DedupeTTL = 24 * time.Hour

// Deduper remembers which deliveries are already being handled.
type Deduper interface {
	// Claim reports false when key was claimed before and not released.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisDeduper struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{redis: rdb, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	return d.redis.SetNX(ctx, key, "1", d.ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	return d.redis.Del(ctx, key).Err()
}
