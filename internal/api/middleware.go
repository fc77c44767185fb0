package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"grant-intake/internal/common/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestContext tags each request with an id and a logger carrying it.
func RequestContext(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		reqLog := log.WithFields(map[string]interface{}{"requestId": id})
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), reqLog))
		c.Next()
	}
}

func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIp":  c.ClientIP(),
		}
		reqLog := logger.FromContext(c.Request.Context(), log)
		if c.Writer.Status() >= 500 {
			reqLog.Error("HTTP request", fields)
			return
		}
		reqLog.Info("HTTP request", fields)
	}
}
