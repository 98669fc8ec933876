package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter 固定窗口计数限流，多实例共享计数
//
//	ratelimit:{scope}:{clientID}  INCR + EXPIRE NX
//
// Redis不可用时放行（记录告警），不因限流组件故障拒绝正常请求
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *zap.Logger
}

// Decision 限流结果
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// NewRateLimiter 每个window内最多limit次
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		logger: logger.Named("ratelimit"),
	}
}

func rateLimitKey(scope, clientID string) string {
	return "ratelimit:" + scope + ":" + clientID
}

// Allow 计数并判断是否放行
func (l *RateLimiter) Allow(ctx context.Context, scope, clientID string) Decision {
	key := rateLimitKey(scope, clientID)

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := l.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		l.logger.Warn("限流计数失败，放行请求", zap.String("key", key), zap.Error(err))
		return Decision{Allowed: true, Remaining: l.limit}
	}

	return decide(incr.Val(), l.limit, pttl.Val(), l.window)
}

func decide(count, limit int64, ttl, window time.Duration) Decision {
	if ttl <= 0 {
		ttl = window
	}
	if count > limit {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: ttl}
	}
	return Decision{Allowed: true, Remaining: limit - count}
}
