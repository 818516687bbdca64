package infra

import (
	"context"
	"time"

	"appstore-bot/bot/domain"
)

// KVReplyCache memoizes formatted replies in the KV under a TTL. Cache
// failures are invisible to callers: a miss or a broken store just means
// the fill function runs.
type KVReplyCache struct {
	Store domain.KV
}

func (c *KVReplyCache) GetOrFill(ctx context.Context, key string, ttl time.Duration, fill func(ctx context.Context) (string, error)) (string, error) {
	if c == nil || c.Store == nil {
		return fill(ctx)
	}

	if v, err := c.Store.Get(ctx, key); err == nil && v != "" {
		return v, nil
	}

	v, err := fill(ctx)
	if err != nil || v == "" {
		return v, err
	}
	_ = c.Store.Set(ctx, key, v, ttl)
	return v, nil
}
