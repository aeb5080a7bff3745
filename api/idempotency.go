package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper keeps create idempotency keys in Redis so every instance
// serving the same board rejects a replayed request.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisDeduper scopes keys to the board so boards sharing a Redis do not collide.
func NewRedisDeduper(client *redis.Client, board string, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl, prefix: "idempotency:" + board + ":"}
}

func (r *RedisDeduper) Add(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+key, 1, r.ttl).Result()
}

func (r *RedisDeduper) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
