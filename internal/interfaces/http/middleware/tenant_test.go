package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/persistence/tenant"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTenantResolver struct {
	mock.Mock
}

func (m *MockTenantResolver) ResolveContext(ctx context.Context, ref string) (shared.TenantContext, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(shared.TenantContext), args.Error(1)
}

func newTenantRouter(t *testing.T, resolver TenantResolver, required bool) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	svc := newTestJWTService()
	router := gin.New()
	router.Use(RequestID(), JWTAuth(JWTMiddlewareConfig{Validator: svc}), Tenant(TenantMiddlewareConfig{
		Resolver: resolver,
		Required: required,
	}))
	router.GET("/test", func(c *gin.Context) {
		tc := GetTenantContext(c)
		fromCtx, ok := tenant.FromContext(c.Request.Context())
		require.True(t, ok)
		assert.Equal(t, tc, fromCtx)
		if tc.IsActive() {
			assert.Equal(t, tc.ID().String(), logger.GetTenantID(c.Request.Context()))
		}
		c.String(http.StatusOK, tc.ScopeKey())
	})
	return router, svc
}

func TestTenant(t *testing.T) {
	acme := uuid.New()

	t.Run("claim pins the tenant", func(t *testing.T) {
		router, svc := newTenantRouter(t, new(MockTenantResolver), true)
		w := serve(router, http.MethodGet, "/test", bearer(issueToken(t, svc, &acme)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, acme.String(), w.Body.String())
	})

	t.Run("header equal to claim is accepted without lookup", func(t *testing.T) {
		resolver := new(MockTenantResolver)
		router, svc := newTenantRouter(t, resolver, true)
		headers := bearer(issueToken(t, svc, &acme))
		headers[TenantHeaderKey] = acme.String()

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", headers).Code)
		resolver.AssertNotCalled(t, "ResolveContext", mock.Anything, mock.Anything)
	})

	t.Run("slug naming the claimed tenant is accepted", func(t *testing.T) {
		resolver := new(MockTenantResolver)
		resolver.On("ResolveContext", mock.Anything, "acme").Return(shared.ForTenant(acme), nil)
		router, svc := newTenantRouter(t, resolver, true)
		headers := bearer(issueToken(t, svc, &acme))
		headers[TenantHeaderKey] = "acme"

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", headers).Code)
	})

	t.Run("header naming another tenant is forbidden", func(t *testing.T) {
		other := uuid.New()
		resolver := new(MockTenantResolver)
		resolver.On("ResolveContext", mock.Anything, other.String()).Return(shared.ForTenant(other), nil)
		router, svc := newTenantRouter(t, resolver, true)
		headers := bearer(issueToken(t, svc, &acme))
		headers[TenantHeaderKey] = other.String()

		w := serve(router, http.MethodGet, "/test", headers)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")
	})

	t.Run("operator token selects tenant by slug", func(t *testing.T) {
		resolver := new(MockTenantResolver)
		resolver.On("ResolveContext", mock.Anything, "acme").Return(shared.ForTenant(acme), nil)
		router, svc := newTenantRouter(t, resolver, true)
		headers := bearer(issueToken(t, svc, nil))
		headers[TenantHeaderKey] = "acme"

		w := serve(router, http.MethodGet, "/test", headers)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, acme.String(), w.Body.String())
	})

	t.Run("unknown tenant", func(t *testing.T) {
		resolver := new(MockTenantResolver)
		resolver.On("ResolveContext", mock.Anything, "ghost").Return(shared.NoTenant(), identity.ErrTenantNotFound)
		router, svc := newTenantRouter(t, resolver, true)
		headers := bearer(issueToken(t, svc, nil))
		headers[TenantHeaderKey] = "ghost"

		w := serve(router, http.MethodGet, "/test", headers)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TENANT_UNKNOWN")
	})

	t.Run("resolver failure is internal", func(t *testing.T) {
		resolver := new(MockTenantResolver)
		resolver.On("ResolveContext", mock.Anything, "acme").Return(shared.NoTenant(), errors.New("connection refused"))
		router, svc := newTenantRouter(t, resolver, true)
		headers := bearer(issueToken(t, svc, nil))
		headers[TenantHeaderKey] = "acme"

		w := serve(router, http.MethodGet, "/test", headers)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("required tenant missing", func(t *testing.T) {
		router, svc := newTenantRouter(t, new(MockTenantResolver), true)
		w := serve(router, http.MethodGet, "/test", bearer(issueToken(t, svc, nil)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TENANT_REQUIRED")
	})

	t.Run("optional tenant runs globally", func(t *testing.T) {
		router, svc := newTenantRouter(t, new(MockTenantResolver), false)
		w := serve(router, http.MethodGet, "/test", bearer(issueToken(t, svc, nil)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, shared.GlobalScope, w.Body.String())
	})
}

func TestGetTenantContext_Default(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, GetTenantContext(c).IsActive())
}
