package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/persistence/tenant"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// TenantContextKey is the gin context key holding the shared.TenantContext
	TenantContextKey = "tenant_context"
	// TenantHeaderKey is the default header naming the tenant by id or slug
	TenantHeaderKey = "X-Tenant-ID"
	// MaxTenantRefLength bounds header supplied tenant references
	MaxTenantRefLength = 64
)

// TenantResolver resolves a tenant reference (id or slug) to a tenant context
type TenantResolver interface {
	ResolveContext(ctx context.Context, ref string) (shared.TenantContext, error)
}

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// Resolver looks up header references; required
	Resolver TenantResolver
	// Header names the tenant header, X-Tenant-ID when empty
	Header string
	// Required rejects requests that resolve no tenant
	Required bool
	// SkipPaths are paths that don't need a tenant
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// Tenant resolves the tenant of the request and stores it in the gin
// context and the request context. Resolution order: the tenant_id claim of
// the JWT, then the tenant header. A token pinned to a tenant cannot address
// another one through the header; operator tokens without a tenant claim may.
func Tenant(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	header := cfg.Header
	if header == "" {
		header = TenantHeaderKey
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		ref := strings.TrimSpace(c.GetHeader(header))
		if len(ref) > MaxTenantRefLength {
			abort(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid tenant reference")
			return
		}

		tc := shared.NoTenant()
		if claims := GetJWTClaims(c); claims != nil && claims.TenantID != "" {
			id, ok := claims.TenantUUID()
			if !ok {
				abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid token")
				return
			}
			tc = shared.ForTenant(id)
			if ref != "" && !sameTenant(ref, id) {
				resolved, err := cfg.Resolver.ResolveContext(c.Request.Context(), ref)
				if err != nil || resolved.ID() != id {
					log.Warn("tenant header does not match token",
						zap.String("token_tenant", id.String()),
						zap.String("header", ref),
						zap.String("request_id", GetRequestID(c)),
					)
					abort(c, http.StatusForbidden, dto.ErrCodeForbidden, "Tenant not accessible with this token")
					return
				}
			}
		} else if ref != "" {
			resolved, err := cfg.Resolver.ResolveContext(c.Request.Context(), ref)
			switch {
			case errors.Is(err, identity.ErrTenantNotFound):
				abortUnauthorized(c, dto.ErrCodeTenantUnknown, "Unknown tenant")
				return
			case err != nil:
				log.Error("tenant resolution failed", zap.String("tenant_ref", ref), zap.Error(err))
				abort(c, http.StatusInternalServerError, dto.ErrCodeInternal, dto.MessageInternal)
				return
			}
			tc = resolved
		}

		if !tc.IsActive() && cfg.Required {
			abortUnauthorized(c, dto.ErrCodeTenantRequired, "Tenant identification required")
			return
		}

		c.Set(TenantContextKey, tc)
		ctx := tenant.WithContext(c.Request.Context(), tc)
		if tc.IsActive() {
			ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tc.ID().String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func sameTenant(ref string, id uuid.UUID) bool {
	parsed, err := uuid.Parse(ref)
	return err == nil && parsed == id
}

// GetTenantContext returns the tenant context resolved for the request.
// Requests that skipped tenant resolution run without a tenant.
func GetTenantContext(c *gin.Context) shared.TenantContext {
	if v, ok := c.Get(TenantContextKey); ok {
		if tc, ok := v.(shared.TenantContext); ok {
			return tc
		}
	}
	return shared.NoTenant()
}
