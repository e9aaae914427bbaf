package repository

import (
	"context"
	"fmt"
	"time"

	"realtime_chat_service/internal/chat/domain"

	"github.com/go-redis/redis/v8"
)

// RateLimiter per identity fixed window counter shared across instances
type RateLimiter interface {
	CheckAndConsume(ctx context.Context, identity string, maxActions int, window time.Duration) (domain.RateLimitCheckResult, error)
}

// returns {allowed, pttl}; the check and the increment happen in one script
var rateLimitScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if current >= limit then
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], window)
		ttl = window
	end
	return {0, ttl}
end
current = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if current == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], window)
	ttl = window
end
return {1, ttl}
`)

type redisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter create a RateLimiter
func NewRedisRateLimiter(client *redis.Client) RateLimiter {
	return &redisRateLimiter{client: client}
}

func rateLimitKey(identity string) string {
	return fmt.Sprintf("ratelimit:%s", identity)
}

func (r *redisRateLimiter) CheckAndConsume(ctx context.Context, identity string, maxActions int, window time.Duration) (domain.RateLimitCheckResult, error) {
	res, err := rateLimitScript.Run(ctx, r.client, []string{rateLimitKey(identity)}, maxActions, window.Milliseconds()).Slice()
	if err != nil {
		return domain.RateLimitCheckResult{}, fmt.Errorf("rate limit %s: %w", identity, err)
	}
	if len(res) != 2 {
		return domain.RateLimitCheckResult{}, fmt.Errorf("rate limit %s: unexpected reply %v", identity, res)
	}

	allowed, _ := res[0].(int64)
	ttl, _ := res[1].(int64)

	result := domain.RateLimitCheckResult{Allowed: allowed == 1}
	if !result.Allowed {
		result.RetryAfterSeconds = retryAfterSeconds(ttl)
	}
	return result, nil
}

// ceil(ms / 1000), at least one second
func retryAfterSeconds(ttlMillis int64) int64 {
	secs := (ttlMillis + 999) / 1000
	if secs < 1 {
		return 1
	}
	return secs
}
