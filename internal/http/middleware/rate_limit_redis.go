package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFixedWindowLimiter counts hits per key in Redis so every replica
// shares one budget. The window starts on the first hit.
type RedisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) *RedisFixedWindowLimiter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string, policy RateLimitPolicy) (Decision, error) {
	policy = normalizePolicy(policy)
	redisKey := l.prefix + ":" + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	// NX keeps the first hit's expiry so later hits do not extend the window.
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Do(ctx, "pexpire", redisKey, policy.Window.Milliseconds(), "NX")
		pttl = pipe.PTTL(ctx, redisKey)
		return nil
	}); err != nil {
		return Decision{}, fmt.Errorf("rate limit window: %w", err)
	}
	now := time.Now()
	return decide(int(incr.Val()), policy, now.Add(pttl.Val()), now), nil
}
