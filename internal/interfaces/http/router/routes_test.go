package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	partnerapp "github.com/erp/backoffice/internal/application/partner"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string]uuid.UUID

func (r staticResolver) ResolveContext(_ context.Context, ref string) (shared.TenantContext, error) {
	if id, ok := r[ref]; ok {
		return shared.ForTenant(id), nil
	}
	return shared.NoTenant(), identity.ErrTenantNotFound
}

// listOnlyDirectory records the tenant of List calls
type listOnlyDirectory struct {
	handler.PartyDirectory
	seen []shared.TenantContext
}

func (d *listOnlyDirectory) List(_ context.Context, tc shared.TenantContext, _ partnerapp.ListPartiesRequest) (*shared.Paginated[partner.PartyView], error) {
	d.seen = append(d.seen, tc)
	return &shared.Paginated[partner.PartyView]{Items: []partner.PartyView{}, Page: 1, PageSize: 20}, nil
}

type routesFixture struct {
	engine    *gin.Engine
	jwt       *auth.JWTService
	directory *listOnlyDirectory
	tenantID  uuid.UUID
}

func newRoutesFixture(t *testing.T, limiter *middleware.RateLimiter) *routesFixture {
	t.Helper()
	f := &routesFixture{
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			Issuer:                "test-issuer",
			AccessTokenExpiration: 15 * time.Minute,
		}),
		directory: &listOnlyDirectory{},
		tenantID:  uuid.New(),
	}
	revocations := auth.NewMemoryRevocationList()

	engine, err := New(Config{
		HTTP: config.HTTPConfig{MaxBodyBytes: 1 << 10, RequestTimeout: time.Second},
		JWT:  middleware.JWTMiddlewareConfig{Validator: f.jwt, Revocations: revocations},
		Tenant: middleware.TenantMiddlewareConfig{
			Resolver: staticResolver{"acme": f.tenantID},
			Required: true,
		},
		RateLimiter: limiter,
	}, Handlers{
		Party:         handler.NewPartyHandler(f.directory),
		Proposal:      handler.NewProposalHandler(nil, nil),
		SalesOrder:    handler.NewSalesOrderHandler(nil, nil, nil),
		PurchaseOrder: handler.NewPurchaseOrderHandler(nil),
		System:        handler.NewSystemHandler(nil, "test"),
		Auth:          handler.NewAuthHandler(revocations),
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

func (f *routesFixture) token(t *testing.T, tenantID *uuid.UUID) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(auth.GenerateTokenInput{TenantID: tenantID, UserID: uuid.New(), Username: "ana"})
	require.NoError(t, err)
	return token.AccessToken
}

func (f *routesFixture) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRoutes_Table(t *testing.T) {
	f := newRoutesFixture(t, nil)

	got := make(map[string]bool)
	for _, route := range f.engine.Routes() {
		got[route.Method+" "+route.Path] = true
	}

	want := []string{
		"GET /health",
		"POST /api/v1/parties",
		"GET /api/v1/parties",
		"GET /api/v1/parties/:id",
		"PATCH /api/v1/parties/:id",
		"DELETE /api/v1/parties/:id",
		"GET /api/v1/parties/by-tax-id/:taxId",
		"POST /api/v1/proposals",
		"GET /api/v1/proposals/:id",
		"PUT /api/v1/proposals/:id/lines",
		"POST /api/v1/proposals/:id/close",
		"DELETE /api/v1/proposals/:id",
		"POST /api/v1/proposals/:id/sales-order",
		"GET /api/v1/sales-orders/:id",
		"PUT /api/v1/sales-orders/:id/lines",
		"PUT /api/v1/sales-orders/:id/lines/:lineId/supplier",
		"POST /api/v1/sales-orders/:id/close",
		"DELETE /api/v1/sales-orders/:id",
		"POST /api/v1/sales-orders/:id/purchase-orders",
		"GET /api/v1/sales-orders/:id/purchase-orders",
		"GET /api/v1/purchase-orders/:id",
		"POST /api/v1/purchase-orders/:id/close",
		"POST /api/v1/purchase-orders/:id/pay",
		"GET /api/v1/auth/me",
		"POST /api/v1/auth/logout",
	}
	for _, route := range want {
		assert.True(t, got[route], "missing route %s", route)
	}
	assert.Len(t, got, len(want))
}

func TestRoutes_Health(t *testing.T) {
	f := newRoutesFixture(t, nil)

	w := f.do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRoutes_APIChain(t *testing.T) {
	t.Run("requires a token", func(t *testing.T) {
		f := newRoutesFixture(t, nil)

		w := f.do(http.MethodGet, "/api/v1/parties", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, f.directory.seen)
	})

	t.Run("operator token requires a tenant", func(t *testing.T) {
		f := newRoutesFixture(t, nil)

		w := f.do(http.MethodGet, "/api/v1/parties", map[string]string{
			middleware.AuthHeaderKey: middleware.BearerPrefix + f.token(t, nil),
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TENANT_REQUIRED")
	})

	t.Run("operator token selects a tenant by slug", func(t *testing.T) {
		f := newRoutesFixture(t, nil)

		w := f.do(http.MethodGet, "/api/v1/parties", map[string]string{
			middleware.AuthHeaderKey:   middleware.BearerPrefix + f.token(t, nil),
			middleware.TenantHeaderKey: "acme",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, f.directory.seen, 1)
		assert.Equal(t, f.tenantID, f.directory.seen[0].ID())
	})

	t.Run("tenant token", func(t *testing.T) {
		f := newRoutesFixture(t, nil)

		w := f.do(http.MethodGet, "/api/v1/parties", map[string]string{
			middleware.AuthHeaderKey: middleware.BearerPrefix + f.token(t, &f.tenantID),
		})

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, f.directory.seen, 1)
		assert.True(t, f.directory.seen[0].IsActive())
	})

	t.Run("rate limited per tenant", func(t *testing.T) {
		f := newRoutesFixture(t, middleware.NewRateLimiter(1, time.Minute))
		headers := map[string]string{middleware.AuthHeaderKey: middleware.BearerPrefix + f.token(t, &f.tenantID)}

		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/parties", headers).Code)
		assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodGet, "/api/v1/parties", headers).Code)
		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", nil).Code)
	})
}
