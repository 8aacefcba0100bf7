// Package handlers provides the v1 HTTP request handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/apperror"
	appctx "trendzportal/internal/core/context"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/infrastructure/http/v1/dto"
	"trendzportal/internal/infrastructure/http/v1/middleware"
	"trendzportal/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates the JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the gin context and aborts. middleware.ErrorHandler
// renders the response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Tenant returns the site resolved by middleware.TenantResolver.
func (h *BaseHandler) Tenant(c *gin.Context) tenant.ID {
	return tenant.GetID(c.Request.Context())
}

// UserID returns the authenticated user id.
func (h *BaseHandler) UserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// ParamID parses the path parameter name as an id.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	v, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("param", name))
		return id.Nil(), false
	}
	return v, true
}

// QueryID parses an optional id query parameter.
func (h *BaseHandler) QueryID(c *gin.Context, name string) (*id.ID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("param", name))
		return nil, false
	}
	return &v, true
}

// ParseIntQuery parses an integer query parameter with a default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ListFilter reads search, limit, offset and orderBy.
func (h *BaseHandler) ListFilter(c *gin.Context, defaultOrder string) domain.ListFilter {
	f := domain.DefaultListFilter()
	f.Search = c.Query("search")
	f.Limit = h.ParseIntQuery(c, "limit", f.Limit)
	f.Offset = h.ParseIntQuery(c, "offset", 0)
	f.OrderBy = c.DefaultQuery("orderBy", defaultOrder)
	f.Normalize()
	return f
}

// DateRange reads the from and to query parameters as YYYY-MM-DD.
func (h *BaseHandler) DateRange(c *gin.Context) (domain.DateRange, bool) {
	var r domain.DateRange
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &r.From}, {"to", &r.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		d, err := time.Parse(dto.DateLayout, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid date, expected YYYY-MM-DD").WithDetail("param", p.name))
			return r, false
		}
		*p.dst = d
	}
	return r, true
}

// completeIdempotency stores the response against the request's idempotency
// key so a retry replays it.
func (h *BaseHandler) completeIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key, store, ok := middleware.IdempotencyFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := store.CompleteKey(ctx, tenant.GetID(ctx), key, statusCode, contentType, response); err != nil {
		logger.Warn(ctx, "idempotency complete key", "key", key, "error", err)
	}
}

// Created sends 201 with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.completeIdempotency(c, http.StatusCreated, "application/json", data)
	c.JSON(http.StatusCreated, data)
}

// Accepted sends 202 with data.
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	h.completeIdempotency(c, http.StatusAccepted, "application/json", data)
	c.JSON(http.StatusAccepted, data)
}

// OK sends 200 with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.completeIdempotency(c, http.StatusOK, "application/json", data)
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204.
func (h *BaseHandler) NoContent(c *gin.Context) {
	// 204 must replay as 204 with empty body.
	h.completeIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}
