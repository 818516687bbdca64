package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"appstore-bot/bot/domain"
)

// RedisKV implements domain.KV on a go-redis client.
//
// Incr maps to a single INCR round trip, which is what makes the gate's
// increment-then-compare discipline race-free across concurrent requests.
type RedisKV struct {
	rdb *redis.Client
}

func NewRedisKV(rdb *redis.Client) *RedisKV {
	return &RedisKV{rdb: rdb}
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrKVUnavailable, err)
	}
	return v, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrKVUnavailable, err)
	}
	return nil
}

func (s *RedisKV) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrKVUnavailable, err)
	}
	return n, nil
}

func (s *RedisKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrKVUnavailable, err)
	}
	return nil
}

func (s *RedisKV) Del(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrKVUnavailable, err)
	}
	return nil
}

func (s *RedisKV) DBSize(ctx context.Context) (int64, error) {
	n, err := s.rdb.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrKVUnavailable, err)
	}
	return n, nil
}
