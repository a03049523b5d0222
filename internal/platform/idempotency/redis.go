package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	responseKeyPrefix = "kycgate:idempotency:response:"
	lockKeyPrefix     = "kycgate:idempotency:lock:"
)

// Redis persists idempotent responses so replays survive restarts and are
// shared across replicas.
type Redis struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedis constructs a Redis-backed idempotency store.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, lockTTL: DefaultLockTTL}
}

func (s *Redis) Get(ctx context.Context, key string) (*CachedResponse, error) {
	data, err := s.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotent response: %w", err)
	}
	var resp CachedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode idempotent response: %w", err)
	}
	return &resp, nil
}

func (s *Redis) Set(ctx context.Context, key string, response *CachedResponse) error {
	cp := *response
	cp.ExpiresAt = time.Now().Add(s.ttl)
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode idempotent response: %w", err)
	}
	if err := s.client.Set(ctx, responseKeyPrefix+key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save idempotent response: %w", err)
	}
	return nil
}

func (s *Redis) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKeyPrefix+key, "1", s.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

func (s *Redis) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, lockKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
