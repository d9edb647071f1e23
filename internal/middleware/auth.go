package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/utils"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if database.IsTokenBlacklisted(claims.GetJTI()) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			c.Abort()
			return
		}

		// Role comes from the row, not the token, so promotions apply immediately.
		var user models.User
		if err := database.DB.Select("id", "role").First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
			c.Abort()
			return
		}

		c.Set("userId", user.ID)
		c.Set("role", user.Role)
		c.Set("claims", claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets "userId" when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil || database.IsTokenBlacklisted(claims.GetJTI()) {
			c.Next()
			return
		}

		c.Set("userId", claims.UserID)
		c.Next()
	}
}

// CurrentUserID returns the authenticated identity, or "" for anonymous
// requests.
func CurrentUserID(c *gin.Context) string {
	return c.GetString("userId")
}

// CurrentRole returns the role AuthMiddleware loaded for the request.
func CurrentRole(c *gin.Context) models.Role {
	if v, ok := c.Get("role"); ok {
		if r, ok := v.(models.Role); ok {
			return r
		}
	}
	return ""
}
