package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/tenant"
	"trendzportal/pkg/logger"
)

// ErrorHandler renders the last error attached to the context as
// {code, message, details}. Internal causes are logged, never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// A handler that already wrote its response keeps it.
		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		var body gin.H

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status = appErr.HTTPStatus
			body = gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			body = gin.H{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
				"details": map[string]any{
					"request_id": c.GetString("request_id"),
				},
			}
		}

		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

// failIdempotency records the error response against the request's
// idempotency key, best-effort.
func failIdempotency(c *gin.Context, status int, body gin.H) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return
	}
	v, ok := c.Get(ctxIdempotencyStore)
	if !ok {
		return
	}
	store, ok := v.(IdempotencyStore)
	if !ok || store == nil {
		return
	}
	ctx := c.Request.Context()
	if err := store.FailKey(ctx, tenant.GetID(ctx), key, status, "application/json", body); err != nil {
		logger.Warn(ctx, "idempotency fail key", "key", key, "error", err)
	}
}
