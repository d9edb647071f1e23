package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/models"
)

// RequireRole lets the request through only for the given roles. It must run
// after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		role := CurrentRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

// AdminOnly restricts access to administrators.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// SellerOnly restricts access to accounts that can publish listings.
func SellerOnly() gin.HandlerFunc {
	return RequireRole(models.RoleSeller, models.RoleAdmin)
}
