package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRecoveryMiddleware turns a panic into a 500 carrying the request ID
func NewRecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		requestID := c.GetString("requestID")

		zap.L().Error("Recovered from panic",
			zap.Any("panic", err),
			zap.String("path", c.Request.URL.Path),
			zap.String("requestID", requestID),
		)

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"requestID": requestID,
		})
	})
}
