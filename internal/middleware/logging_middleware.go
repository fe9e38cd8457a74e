// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"label-service/internal/utils"
)

// LoggingMiddleware logs every request with its ID, the addressed printer
// or job when the route carries one, and the response size.
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		duration := time.Since(startTime)

		fields := []zap.Field{
			zap.Int("response_bytes", c.Writer.Size()),
		}
		if requestID, exists := c.Get("request_id"); exists {
			fields = append(fields, zap.Any("request_id", requestID))
		}
		if printerID := c.Param("id"); printerID != "" {
			fields = append(fields, zap.String("printer_id", printerID))
		}
		if jobID := c.Param("job_id"); jobID != "" {
			fields = append(fields, zap.String("job_id", jobID))
		}

		logger.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.Request.UserAgent(),
			c.ClientIP(),
			c.Writer.Status(),
			duration,
			fields...,
		)
	}
}
