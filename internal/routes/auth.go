package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/handlers"
	"github.com/rentitout/backend/internal/middleware"
)

func RegisterAuthRoutes(r gin.IRouter) {
	r.POST("/register", middleware.RequireRegistrationOpen(), handlers.Register)
	r.POST("/login", handlers.Login)
	r.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)
	r.GET("/me", middleware.AuthMiddleware(), handlers.Me)
}
