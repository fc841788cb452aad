package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "wealthsync/internal/errors"
)

// abortWithAppError stops the chain and writes err in the API's error envelope.
func abortWithAppError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, gin.H{
		"error": gin.H{
			"code":    err.Code,
			"message": err.Message,
		},
	})
}
