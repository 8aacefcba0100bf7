package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "trendzportal/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace reads or generates request and trace ids and echoes them back.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := appctx.NewTraceContext(c.Request.Context(), c.GetHeader(HeaderRequestID), c.GetHeader(HeaderTraceID))
		requestID, traceID := tc.RequestID, tc.TraceID
		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), tc))

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}
