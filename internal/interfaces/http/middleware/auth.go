// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"seo-writer-api/internal/interfaces/http/dto"
	apperrors "seo-writer-api/pkg/errors"
	"seo-writer-api/pkg/logger"
	"seo-writer-api/pkg/utils"
)

// SubjectKey 鉴权主体在 gin.Context 中的键
const SubjectKey = "subject"

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
	// Enabled 是否启用认证
	Enabled bool
	// Scope 非空时要求令牌包含该 scope
	Scope string
}

// Auth Bearer 令牌认证中间件，挂在 /v1 路由组上
func Auth(cfg AuthConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, apperrors.CodeUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, apperrors.CodeUnauthorized, "invalid authorization format")
			return
		}

		claims, err := jwtManager.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, utils.ErrExpiredToken) {
				abortUnauthorized(c, apperrors.CodeTokenExpired, "token expired")
				return
			}
			abortUnauthorized(c, apperrors.CodeTokenInvalid, "invalid token")
			return
		}

		if cfg.Scope != "" && !claims.HasScope(cfg.Scope) {
			abortUnauthorized(c, apperrors.CodeUnauthorized, "token lacks scope "+cfg.Scope)
			return
		}

		c.Set(SubjectKey, claims.Subject)
		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code apperrors.ErrorCode, detail string) {
	dto.Fail(c, apperrors.New(code, "Unauthorized").WithDetail(detail))
}
