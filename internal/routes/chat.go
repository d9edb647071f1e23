package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/handlers"
	"github.com/rentitout/backend/internal/middleware"
	"github.com/rentitout/backend/internal/models"
)

func RegisterChatRoutes(r gin.IRouter) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware(), middleware.FeatureGate(models.SettingChatEnabled, "Chat"))
	{
		chat.GET("/conversations", handlers.GetConversations)
		chat.GET("/listings", handlers.GetConversationListings)
		chat.GET("/threads/:listingId", handlers.GetThread) // ?counterpartId=...
		chat.POST("/threads/:listingId/messages", middleware.ChatRateLimit(), handlers.SendMessage)
	}
}
