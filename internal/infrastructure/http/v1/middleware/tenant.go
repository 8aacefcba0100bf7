package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/tenant"
	"trendzportal/pkg/logger"
)

// TenantHeader is the HTTP header naming the site.
const TenantHeader = "X-Tenant-ID"

// TenantResolver looks the X-Tenant-ID site up in the registry and stores it
// in the request context. It must run before Auth.
func TenantResolver(registry tenant.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			_ = c.Error(apperror.NewValidation("tenant is required").WithDetail("header", TenantHeader))
			c.Abort()
			return
		}

		tn, err := tenant.ParseID(raw)
		if err != nil {
			_ = c.Error(apperror.NewValidation("invalid tenant id").
				WithDetail("header", TenantHeader).
				WithDetail("value", raw))
			c.Abort()
			return
		}

		site, err := registry.GetByID(ctx, tn)
		if err != nil {
			if errors.Is(err, tenant.ErrSiteNotFound) {
				_ = c.Error(apperror.NewNotFound("tenant", tn.String()))
			} else {
				logger.Warn(ctx, "site lookup failed", "tenant_id", tn, "error", err)
				_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", tn.String()))
			}
			c.Abort()
			return
		}
		if !site.IsActive() {
			_ = c.Error(apperror.NewForbidden("tenant is not active").WithDetail("tenant_id", tn.String()))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(tenant.WithSite(ctx, site))
		c.Set("tenant_id", site.ID.String())

		c.Next()
	}
}
