package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/tenant"
	"trendzportal/pkg/logger"
)

// Logger writes one entry per request with status and latency.
func Logger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		ctx := c.Request.Context()
		log.WithContext(ctx).Infow("http request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"tenant_id", tenant.GetID(ctx),
			"error", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
