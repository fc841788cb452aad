package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "wealthsync/internal/errors"
	"wealthsync/internal/logger"
)

// PipelineAuthMiddleware guards machine-to-machine endpoints (manual price
// refresh, refresh status) with the X-API-Key header. An empty configured key
// disables the endpoints entirely.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithAppError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			logger.Get().Warnw("rejected pipeline request", "path", c.Request.URL.Path, "client_ip", c.ClientIP())
			abortWithAppError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Set("pipeline", true)
		c.Next()
	}
}
