package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/handlers"
	"github.com/rentitout/backend/internal/middleware"
	"github.com/rentitout/backend/internal/models"
)

func RegisterProductRoutes(r gin.IRouter) {
	products := r.Group("/products")
	{
		products.GET("", handlers.ListProducts)
		products.GET("/:id", middleware.OptionalAuthMiddleware(), handlers.GetProduct)

		write := products.Group("")
		write.Use(middleware.AuthMiddleware())
		write.POST("", middleware.SellerOnly(), middleware.FeatureGate(models.SettingListingsEnabled, "New listings"), handlers.CreateProduct)
		write.PUT("/:id", handlers.UpdateProduct)
		write.DELETE("/:id", handlers.DeleteProduct)
	}
}
