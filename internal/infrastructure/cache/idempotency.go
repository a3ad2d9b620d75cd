package cache

import (
	"context"
	"fmt"
	"time"
)

// IdempotencyGuard records processed external event identifiers so that
// duplicate deliveries (e.g. replayed payment webhooks) can be detected.
type IdempotencyGuard interface {
	// MarkProcessed records the key and reports whether this call was the
	// first to do so. Returns false when the key was already present.
	MarkProcessed(ctx context.Context, key string) (bool, error)

	// Release removes a claimed key so a failed handler can be retried
	// by the next delivery of the same event.
	Release(ctx context.Context, key string) error
}

const idempotencyTTL = 24 * time.Hour

// redisIdempotencyGuard implements IdempotencyGuard with SETNX keys.
type redisIdempotencyGuard struct {
	redis *RedisClient
}

func NewIdempotencyGuard(redis *RedisClient) IdempotencyGuard {
	return &redisIdempotencyGuard{redis: redis}
}

func (g *redisIdempotencyGuard) MarkProcessed(ctx context.Context, key string) (bool, error) {
	ok, err := g.redis.Client.SetNX(ctx, "idempotency:"+key, 1, idempotencyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set idempotency key: %w", err)
	}
	return ok, nil
}

func (g *redisIdempotencyGuard) Release(ctx context.Context, key string) error {
	if err := g.redis.Client.Del(ctx, "idempotency:"+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
