package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/database"
)

// Health reports database and Redis reachability.
func Health(c *gin.Context) {
	dbStatus := "ok"
	redisStatus := "not configured"

	if database.DB == nil {
		dbStatus = "error"
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "error"
	}

	if database.Redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		redisStatus = "ok"
		if err := database.Redis.Ping(ctx).Err(); err != nil {
			redisStatus = "error"
		}
	}

	status := "ok"
	code := http.StatusOK
	if dbStatus != "ok" {
		status = "down"
		code = http.StatusServiceUnavailable
	} else if redisStatus == "error" {
		status = "degraded"
	}

	c.JSON(code, gin.H{
		"status":  status,
		"message": "Rent It Out backend is running",
		"checks": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
