package middleware

import (
	"Commonfeed/internal/pkg/consts"
	"Commonfeed/internal/pkg/response"
	"Commonfeed/internal/pkg/security"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		c.Set(consts.ContextDIDKey, claims.DID)
		c.Set("roles", claims.Roles)

		newCtx := context.WithValue(c.Request.Context(), consts.ContextDIDKey, claims.DID)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}
