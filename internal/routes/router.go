package routes

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/handlers"
	"github.com/rentitout/backend/internal/metrics"
	"github.com/rentitout/backend/internal/middleware"
)

// NewRouter builds the HTTP surface. Socket.io is mounted separately by the
// server since it owns a background goroutine.
func NewRouter() *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityHeaders())

	// Socket.io long-polling would burn through the general budget.
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io/") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	api := r.Group("/api")
	{
		// Auth stays reachable during maintenance so admins can sign in
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		RegisterAuthRoutes(auth)

		api.GET("/system/status", handlers.PublicGetSystemStatus)

		protected := api.Group("")
		protected.Use(middleware.MaintenanceMode())

		RegisterProductRoutes(protected)
		RegisterChatRoutes(protected)
		RegisterUploadRoutes(protected)
		RegisterAdminRoutes(api) // Admin routes bypass maintenance
	}

	r.GET("/health", handlers.Health)
	r.GET("/metrics", metrics.Handler())

	return r
}
