package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestJWTService() *JWTService {
	svc := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "test-issuer",
		AccessTokenExpiration: 15 * time.Minute,
	})
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()
	userID := uuid.New()

	token, err := svc.GenerateToken(GenerateTokenInput{
		TenantID:    &tenantID,
		UserID:      userID,
		Username:    "ana",
		Permissions: []string{identity.PermissionViewSensitive},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, testNow.Add(15*time.Minute), token.ExpiresAt)
	assert.NotEmpty(t, token.JTI)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	got, ok := claims.TenantUUID()
	require.True(t, ok)
	assert.Equal(t, tenantID, got)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, token.JTI, claims.ID)
	assert.True(t, claims.HasPermission(identity.PermissionViewSensitive))
	assert.False(t, claims.HasPermission("partner.delete"))
	assert.Equal(t, 5*time.Minute, claims.RemainingTTL(testNow.Add(10*time.Minute)))
	assert.Zero(t, claims.RemainingTTL(testNow.Add(time.Hour)))
}

func TestJWTService_OperatorToken(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New(), Username: "ops"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	_, ok := claims.TenantUUID()
	assert.False(t, ok)
}

func TestJWTService_Rejections(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestJWTService()
		later.now = func() time.Time { return testNow.Add(time.Hour) }
		_, err := later.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		earlier := newTestJWTService()
		earlier.now = func() time.Time { return testNow.Add(-time.Hour) }
		_, err := earlier.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "test-issuer", AccessTokenExpiration: time.Minute})
		other.now = func() time.Time { return testNow }
		_, err := other.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "elsewhere", AccessTokenExpiration: time.Minute})
		other.now = func() time.Time { return testNow }
		_, err := other.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaimsAuthorizer(t *testing.T) {
	ctx := context.Background()
	var authz identity.Authorizer = ClaimsAuthorizer{}

	assert.False(t, authz.HasPermission(ctx, identity.PermissionViewSensitive), "no claims")

	ctx = WithClaims(ctx, &Claims{UserID: "u", Permissions: []string{identity.PermissionViewSensitive}})
	assert.True(t, authz.HasPermission(ctx, identity.PermissionViewSensitive))
	assert.False(t, authz.HasPermission(ctx, "other"))
}

func TestRevocationLists(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mem := NewMemoryRevocationList()
	clock := testNow
	mem.now = func() time.Time { return clock }

	lists := map[string]RevocationList{
		"redis":  NewRedisRevocationList(client),
		"memory": mem,
	}
	for name, list := range lists {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
			require.NoError(t, list.Revoke(ctx, "jti-expired", 0))

			revoked, err := list.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			assert.True(t, revoked)

			revoked, err = list.IsRevoked(ctx, "jti-expired")
			require.NoError(t, err)
			assert.False(t, revoked, "already expired tokens are not stored")
		})
	}

	t.Run("entries lapse with the token", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		clock = clock.Add(2 * time.Minute)
		for name, list := range lists {
			revoked, err := list.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			assert.False(t, revoked, name)
		}
	})
}
