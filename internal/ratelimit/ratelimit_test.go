package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/payrelay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitializeLimiterDisabled(t *testing.T) {
	limiter, err := NewInitializeLimiter(nil, config.Config{})
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	result, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestNewInitializeLimiterValidatesConfig(t *testing.T) {
	_, err := NewInitializeLimiter(nil, config.Config{RateLimit: config.RateLimitConfig{Enabled: true}})
	assert.Error(t, err)

	_, err = NewInitializeLimiter(nil, config.Config{RateLimit: config.RateLimitConfig{
		Enabled:   true,
		RedisAddr: "localhost:6379",
	}})
	assert.Error(t, err)
}

func TestTokenBucketRequiresClient(t *testing.T) {
	var bucket *TokenBucket
	result, err := bucket.Allow(context.Background(), "key", 1, 1)
	assert.ErrorIs(t, err, errNotConfigured)
	assert.False(t, result.Allowed)
	assert.Nil(t, NewTokenBucket(nil))
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 4*time.Second, bucketTTL(5, 10))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))
}

func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("PAYRELAY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PAYRELAY_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestTokenBucketAgainstRedis(t *testing.T) {
	client := redisForTest(t)
	ctx := context.Background()
	key := fmt.Sprintf("payrelay:test:bucket:%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = client.Del(context.Background(), key).Err() })

	bucket := NewTokenBucket(client)
	for i := 0; i < 3; i++ {
		res, err := bucket.Allow(ctx, key, 0.5, 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := bucket.Allow(ctx, key, 0.5, 3)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, 2*time.Second)

	ttl, err := client.PTTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
