package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/payrelay/internal/config"
	"go.uber.org/fx"
)

const keyInitializeClient = "payrelay:initialize:client:%s"

// Limiter takes one token per request for a client key.
type Limiter interface {
	Enabled() bool
	Allow(ctx context.Context, clientKey string) (*RateLimitResult, error)
}

// InitializeLimiter throttles checkout initialization per client address.
// A nil limiter allows everything.
type InitializeLimiter struct {
	bucket *TokenBucket
	client *redis.Client
	rate   float64
	burst  int
}

func NewInitializeLimiter(lc fx.Lifecycle, cfg config.Config) (*InitializeLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.InitializeRate <= 0 || limitCfg.InitializeBurst <= 0 {
		return nil, errors.New("initialize rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}

	return &InitializeLimiter{
		bucket: NewTokenBucket(client),
		client: client,
		rate:   limitCfg.InitializeRate,
		burst:  limitCfg.InitializeBurst,
	}, nil
}

func (l *InitializeLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow takes one token for clientKey. Callers decide whether an error
// should block the request.
func (l *InitializeLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyInitializeClient, clientKey), l.rate, l.burst)
}
