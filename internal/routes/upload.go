package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/handlers"
	"github.com/rentitout/backend/internal/middleware"
)

func RegisterUploadRoutes(r gin.IRouter) {
	upload := r.Group("/upload")
	upload.Use(middleware.AuthMiddleware(), middleware.SellerOnly(), middleware.UploadRateLimit())
	{
		upload.POST("/product-image", handlers.UploadProductImage)
	}
}
