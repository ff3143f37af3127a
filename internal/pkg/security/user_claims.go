package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims JWT 中携带的身份信息，DID 即投票者身份
type UserClaims struct {
	DID   string   `json:"did"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole 判断是否拥有某个角色
func (c *UserClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
