package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/perfumestore/internal/infrastructure/persistence/redis"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/metrics"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// Limiter 按(scope, 客户端)计数的限流器
type Limiter interface {
	Allow(ctx context.Context, scope, clientID string) redis.Decision
}

// RateLimit 按客户端IP限流，scope区分接口（login、coupon、order、payment）
// limiter为nil时不限流
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		d := limiter.Allow(c.Request.Context(), scope, c.ClientIP())
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		if d.Allowed {
			c.Next()
			return
		}

		metrics.RateLimitRejectedTotal.WithLabelValues(scope).Inc()
		seconds := int(math.Ceil(d.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		response.ErrorWithStatus(c, http.StatusTooManyRequests, apperrors.ErrTooManyRequests)
		c.Abort()
	}
}
