package cache

import (
	"context"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapos/internal/domain"
)

func TestNoopCacheNeverHits(t *testing.T) {
	var c SuggestionCache = NoopSuggestionCache{}
	require.NoError(t, c.Set(context.Background(), "k", &domain.Suggestion{ThankYouNote: "hi"}, time.Minute))

	got, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("NOVAPOS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NOVAPOS_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewRedisSuggestionCache(addr, "", 0)
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	key := "test-" + time.Now().Format("150405.000000")
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	want := &domain.Suggestion{UpsellSuggestion: "Add a muffin", ThankYouNote: "Thanks Ana!", Source: domain.SuggestionSourceLocal}
	require.NoError(t, c.Set(ctx, key, want, time.Minute))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Set(ctx, key+"-nil", nil, time.Minute))
}

func TestRedisCacheSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisSuggestionCacheFromClient(client)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.Error(t, c.Ping(ctx))

	got, ok, err := c.Get(ctx, "cart")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	require.Error(t, c.Set(ctx, "cart", &domain.Suggestion{ThankYouNote: "hi"}, time.Minute))
	require.NoError(t, c.Set(ctx, "cart", nil, time.Minute))
}
