package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis
// ⭐ SSOT: cross-process rate limits live here only
type RateLimiter struct {
	client *Client
	prefix string
	script *redis.Script
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // Unique identifier (e.g., "api.coingecko.com")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, now .. '-' .. math.random(1000000))
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	else
		return {0, 0}
	end
`)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		script: slidingWindowScript,
	}
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	result, err := r.script.Run(ctx, r.client.Redis(), []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))

	return allowed, remaining, nil
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Predefined per-host limits for upstream APIs (conservative public tiers)
var hostRateLimits = map[string]RateLimitConfig{
	"api.dexscreener.com": {Key: "api.dexscreener.com", Limit: 250, Window: time.Minute},
	"api.coingecko.com":   {Key: "api.coingecko.com", Limit: 25, Window: time.Minute},
	"lunarcrush.com":      {Key: "lunarcrush.com", Limit: 10, Window: time.Minute},
	"api.telegram.org":    {Key: "api.telegram.org", Limit: 20, Window: time.Minute},
}

// HostRateLimit returns the limit for host, falling back to 60 req/min
func HostRateLimit(host string) RateLimitConfig {
	if cfg, ok := hostRateLimits[host]; ok {
		return cfg
	}
	return RateLimitConfig{Key: host, Limit: 60, Window: time.Minute}
}
