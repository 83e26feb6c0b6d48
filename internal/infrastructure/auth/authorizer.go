package auth

import (
	"context"

	"github.com/erp/backoffice/internal/domain/identity"
)

type claimsKey struct{}

// WithClaims binds validated claims to ctx
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims bound by WithClaims
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// ClaimsAuthorizer grants the permissions carried by the token bound to ctx.
// A context without claims is granted nothing.
type ClaimsAuthorizer struct{}

var _ identity.Authorizer = ClaimsAuthorizer{}

// HasPermission implements identity.Authorizer
func (ClaimsAuthorizer) HasPermission(ctx context.Context, permission string) bool {
	claims, ok := ClaimsFromContext(ctx)
	return ok && claims.HasPermission(permission)
}
