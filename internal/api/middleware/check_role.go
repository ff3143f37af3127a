package middleware

import (
	"Commonfeed/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// CheckRoles 要求已认证的调用方至少持有其中一个角色，
// 纪元切换与规则覆写等治理写接口用它守门
func CheckRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice("roles")

		hasPermission := false
		for _, required := range requiredRoles {
			for _, userRole := range roles {
				if required == userRole {
					hasPermission = true
					break
				}
			}
			if hasPermission {
				break
			}
		}

		if !hasPermission {
			response.Fail(c, response.Forbidden, "权限不足：该操作需要版主角色")
			c.Abort()
			return
		}

		c.Next()
	}
}
