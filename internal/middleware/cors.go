package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/config"
)

func CORSMiddleware() gin.HandlerFunc {
	origins := []string{"http://localhost:5173"}
	if u := config.AppConfig.FrontendURL; u != "" && u != origins[0] {
		origins = append(origins, u)
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
