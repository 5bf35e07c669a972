package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dedup:"

type redisDedup struct {
	client *redis.Client
}

// NewRedisDedup builds a Dedup backed by redis key TTLs, shared across
// service instances.
func NewRedisDedup(client *redis.Client) Dedup {
	return &redisDedup{client: client}
}

func (d *redisDedup) Contains(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *redisDedup) Put(ctx context.Context, key string, ttl time.Duration) error {
	return d.client.Set(ctx, redisKeyPrefix+key, "1", ttl).Err()
}
