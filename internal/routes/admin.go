package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/handlers"
	"github.com/rentitout/backend/internal/middleware"
)

func RegisterAdminRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.GET("/dashboard", handlers.AdminGetDashboard)
	admin.GET("/products", handlers.AdminListProducts)
	admin.GET("/users", handlers.AdminListUsers)

	// System Settings
	admin.GET("/system", handlers.AdminGetSystemSettings)
	admin.PUT("/system", handlers.AdminUpdateSystemSettings)
	admin.GET("/audit", handlers.AdminListAuditLog)
}
