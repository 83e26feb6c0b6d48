package identity

import "context"

// Permissions used by the core
const (
	// PermissionViewSensitive allows reading party contact data and tax ids in the clear
	PermissionViewSensitive = "partner.sensitive.view"
)

// Authorizer answers whether the caller bound to ctx holds a permission
type Authorizer interface {
	HasPermission(ctx context.Context, permission string) bool
}

// AuthorizerFunc adapts a function to Authorizer
type AuthorizerFunc func(ctx context.Context, permission string) bool

// HasPermission calls f
func (f AuthorizerFunc) HasPermission(ctx context.Context, permission string) bool {
	return f(ctx, permission)
}

// DenyAll is an Authorizer that grants nothing
var DenyAll Authorizer = AuthorizerFunc(func(context.Context, string) bool { return false })
