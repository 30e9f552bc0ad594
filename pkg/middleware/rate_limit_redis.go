package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/notewave/notewave/pkg/logger"
	"github.com/notewave/notewave/pkg/metrics"
)

// RedisRateLimiter implements a fixed-window counter shared across processes.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	// the window is a divisor for bucketing; anything below a second would
	// panic or spin on sub-second keys
	if window < time.Second {
		window = time.Second
	}
	return &RedisRateLimiter{client: client, limit: limit, window: window}
}

func (rl *RedisRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%d", limiterKey(c), time.Now().Unix()/int64(rl.window.Seconds()))

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			// Fail open so a Redis outage does not take the API down with it.
			logger.Warnf("rate limiter redis error: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			rl.client.Expire(ctx, key, rl.window)
		}
		if count > int64(rl.limit) {
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": "too many requests"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
