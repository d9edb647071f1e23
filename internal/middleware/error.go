package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	apperrors "github.com/rentitout/backend/pkg/errors"
	"github.com/rentitout/backend/pkg/logger"
)

// ErrorHandlerMiddleware recovers panics and renders errors attached with
// c.Error. Only *AppError messages reach the client.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "Internal Server Error",
					"message": "An unexpected error occurred",
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
			}
			c.JSON(appErr.Code, gin.H{"error": appErr.Message})
			return
		}

		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
