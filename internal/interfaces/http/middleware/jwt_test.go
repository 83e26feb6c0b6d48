package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, tenantID *uuid.UUID, permissions ...string) *auth.Token {
	t.Helper()
	token, err := svc.GenerateToken(auth.GenerateTokenInput{
		TenantID:    tenantID,
		UserID:      uuid.New(),
		Username:    "operator",
		Permissions: permissions,
	})
	require.NoError(t, err)
	return token
}

func bearer(token *auth.Token) map[string]string {
	return map[string]string{AuthHeaderKey: BearerPrefix + token.AccessToken}
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestJWTAuth(t *testing.T) {
	svc := newTestJWTService()
	revocations := auth.NewMemoryRevocationList()

	router := gin.New()
	router.Use(RequestID(), JWTAuth(JWTMiddlewareConfig{
		Validator:   svc,
		Revocations: revocations,
		SkipPaths:   []string{"/health"},
	}))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		fromCtx, ok := auth.ClaimsFromContext(c.Request.Context())
		require.True(t, ok)
		assert.Same(t, claims, fromCtx)
		granted := auth.ClaimsAuthorizer{}.HasPermission(c.Request.Context(), "partner.sensitive.view")
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "sensitive": granted})
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("valid token", func(t *testing.T) {
		tenantID := uuid.New()
		w := serve(router, http.MethodGet, "/test", bearer(issueToken(t, svc, &tenantID, "partner.sensitive.view")))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"sensitive":true`)
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
		assert.Contains(t, w.Body.String(), `"request_id"`)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", map[string]string{AuthHeaderKey: "Basic abc"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", map[string]string{AuthHeaderKey: BearerPrefix + "not-a-jwt"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})

	t.Run("revoked token", func(t *testing.T) {
		token := issueToken(t, svc, nil)
		require.NoError(t, revocations.Revoke(context.Background(), token.JTI, time.Minute))

		w := serve(router, http.MethodGet, "/test", bearer(token))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_REVOKED")
	})

	t.Run("skip path", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", nil).Code)
	})
}

func TestJWTAuth_RevocationStoreDown(t *testing.T) {
	svc := newTestJWTService()
	router := gin.New()
	router.Use(JWTAuth(JWTMiddlewareConfig{Validator: svc, Revocations: failingRevocations{}}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodGet, "/test", bearer(issueToken(t, svc, nil)))
	assert.Equal(t, http.StatusOK, w.Code, "fails open")
}

func TestAuthErrorResponse(t *testing.T) {
	code, _ := authErrorResponse(auth.ErrExpiredToken)
	assert.Equal(t, "ERR_TOKEN_EXPIRED", code)
	code, _ = authErrorResponse(auth.ErrMissingUserID)
	assert.Equal(t, "ERR_TOKEN_INVALID", code)
}
