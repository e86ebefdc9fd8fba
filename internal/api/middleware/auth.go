package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-api/pkg/logger"
	"github.com/d60-Lab/social-api/pkg/response"
	"github.com/d60-Lab/social-api/pkg/token"
)

const userIDKey = "user_id"

// Auth 校验 Bearer JWT，把 user_id 写入 gin.Context
func Auth(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "authentication credentials were not provided")
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			response.Unauthorized(c, "invalid authorization header, expected: Bearer <token>")
			return
		}
		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			logger.Debug("auth failure",
				zap.String("ip", c.ClientIP()), zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Unauthorized(c, "invalid token")
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID 当前请求的用户；未经过 Auth 时为空
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
