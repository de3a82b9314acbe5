package middleware

import (
	"github.com/gin-gonic/gin"

	"evcharge-backend/internal/shared/response"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// RequireRoles chỉ cho qua khi role (set bởi AuthMiddleware) nằm trong danh sách
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := allowed[GetRole(c)]; !ok {
			response.Forbidden(c, "Access denied: insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminMiddleware checks if user has admin role
func AdminMiddleware() gin.HandlerFunc {
	return RequireRoles(RoleAdmin)
}

// CustomerMiddleware: chỉ khách hàng tự thanh toán invoice của mình
func CustomerMiddleware() gin.HandlerFunc {
	return RequireRoles(RoleCustomer)
}
