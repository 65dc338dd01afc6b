package storage

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

//go:embed ratelimit.lua
var rateLimitLua string

var rateLimitScript = redis.NewScript(rateLimitLua)

const rateLimitKeyPrefix = "resilio:ratelimit:"

type rateLimitParams struct {
	window time.Duration // ARGV[1]: sliding window size in milliseconds
	limit  int           // ARGV[2]: max requests allowed in window
	ttl    time.Duration // ARGV[3]: key expiration in seconds
}

func (p rateLimitParams) args(member string) []any {
	return []any{
		p.window.Milliseconds(),
		p.limit,
		int(p.ttl.Seconds()),
		member,
	}
}

var _ RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter shares a per-key request budget across server replicas.
type RedisRateLimiter struct {
	client *redis.Client
	params rateLimitParams
}

func NewRedisRateLimiter(client *redis.Client, perSecond int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		params: rateLimitParams{
			window: time.Second,
			limit:  perSecond,
			ttl:    2 * time.Second,
		},
	}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	result, err := rateLimitScript.Run(ctx, r.client,
		[]string{rateLimitKeyPrefix + key},
		r.params.args(uuid.NewString())...,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	return result == 1, nil
}

var _ RateLimiter = (*MemoryRateLimiter)(nil)

// MemoryRateLimiter keeps one token bucket per key.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewMemoryRateLimiter(perSecond float64, burst int) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (m *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	limiter, ok := m.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(m.limit, m.burst)
		m.limiters[key] = limiter
	}
	m.mu.Unlock()
	return limiter.Allow(), nil
}
