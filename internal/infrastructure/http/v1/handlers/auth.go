package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/apperror"
	appctx "trendzportal/internal/core/context"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *identity.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *identity.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Token handles POST /auth/token. The site comes from X-Tenant-ID.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	token, err := h.service.IssueToken(c.Request.Context(), h.Tenant(c), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: "Bearer"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":      user.UserID,
		"tenantId":    user.TenantID,
		"username":    user.Username,
		"roles":       user.Roles,
		"permissions": user.Permissions,
		"isAdmin":     user.IsAdmin,
	})
}
