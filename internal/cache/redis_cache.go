package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"novapos/internal/domain"
)

const keyPrefix = "novapos:suggestion:"

type RedisSuggestionCache struct {
	client redis.UniversalClient
}

func NewRedisSuggestionCache(addr string, password string, db int) *RedisSuggestionCache {
	return NewRedisSuggestionCacheFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// NewRedisSuggestionCacheFromClient wraps an existing single-node, cluster
// or sentinel client.
func NewRedisSuggestionCacheFromClient(client redis.UniversalClient) *RedisSuggestionCache {
	return &RedisSuggestionCache{client: client}
}

func (c *RedisSuggestionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSuggestionCache) Close() error {
	return c.client.Close()
}

func (c *RedisSuggestionCache) Get(ctx context.Context, key string) (*domain.Suggestion, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var suggestion domain.Suggestion
	if err := json.Unmarshal([]byte(val), &suggestion); err != nil {
		return nil, false, err
	}
	return &suggestion, true, nil
}

func (c *RedisSuggestionCache) Set(ctx context.Context, key string, value *domain.Suggestion, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, payload, ttl).Err()
}
