// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"seo-writer-api/internal/infrastructure/persistence/redis"
	"seo-writer-api/internal/interfaces/http/dto"
	apperrors "seo-writer-api/pkg/errors"
	"seo-writer-api/pkg/logger"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// RateLimitConfig 单个限流作用域
type RateLimitConfig struct {
	// Scope 作用域名，参与构建 Redis Key
	Scope string
	// Limit 窗口内允许的请求数，<=0 关闭
	Limit int
	// Window 滑动窗口长度，默认一分钟
	Window time.Duration
}

// RateLimit 滑动窗口限流中间件；限流器故障时放行
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if cfg.Limit <= 0 || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	limitHeader := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		client := c.GetString(SubjectKey)
		if client == "" {
			client = c.ClientIP()
		}
		key := redis.BuildRateLimitKey(client, cfg.Scope)
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, key, cfg.Limit, cfg.Window)
		if err != nil {
			logger.Warn(ctx, "rate limiter unavailable, allowing request", "scope", cfg.Scope, "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limitHeader)
		if remaining, err := limiter.Remaining(ctx, key, cfg.Limit, cfg.Window); err == nil {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			dto.Fail(c, apperrors.New(apperrors.CodeTooManyRequests, "Rate limit exceeded").
				WithDetail("at most "+limitHeader+" requests per "+cfg.Window.String()))
			return
		}

		c.Next()
	}
}
