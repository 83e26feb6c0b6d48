package handler

import (
	"net/http"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles token endpoints
type AuthHandler struct {
	BaseHandler
	revocations auth.RevocationList
	now         func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(revocations auth.RevocationList) *AuthHandler {
	return &AuthHandler{revocations: revocations, now: time.Now}
}

// MeResponse describes the caller of a request
type MeResponse struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	TenantID    string    `json:"tenant_id,omitempty"`
	Permissions []string  `json:"permissions"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Me returns the claims of the presented token
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}

	resp := MeResponse{
		UserID:      claims.UserID,
		Username:    claims.Username,
		TenantID:    claims.TenantID,
		Permissions: claims.Permissions,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	h.Success(c, resp)
}

// Logout revokes the presented token until it would have expired
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}

	if err := h.revocations.Revoke(c.Request.Context(), claims.ID, claims.RemainingTTL(h.now())); err != nil {
		logger.L(c.Request.Context()).Error("token revocation failed", zap.String("jti", claims.ID), zap.Error(err))
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, dto.MessageUnavailable)
		return
	}
	h.NoContent(c)
}
