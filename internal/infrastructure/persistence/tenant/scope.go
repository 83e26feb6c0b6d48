// Package tenant provides multi-tenant database scoping for GORM.
//
// Repositories bind the TenantContext of a call to the statement context and
// apply Scope to every query:
//
//	db := r.db.WithContext(tenant.WithContext(ctx, tc)).Scopes(tenant.Scope(tc, "parties"))
//	db.Find(&parties) // WHERE (parties.tenant_id IS NULL OR parties.tenant_id = 'xxx')
//
// The Guard callback fails any statement that runs under an active tenant
// without a tenant condition, and any insert stamped with another tenant.
package tenant

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

// Column is the tenant column carried by every tenant-scoped table
const Column = "tenant_id"

// ScopeColumn is the column holding the scope key of per-tenant unique data
const ScopeColumn = "scope"

type contextKey struct{}

// WithContext returns ctx carrying tc for the Guard callback
func WithContext(ctx context.Context, tc shared.TenantContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the TenantContext bound to ctx, if any
func FromContext(ctx context.Context) (shared.TenantContext, bool) {
	if ctx == nil {
		return shared.NoTenant(), false
	}
	tc, ok := ctx.Value(contextKey{}).(shared.TenantContext)
	return tc, ok
}

// Scope restricts reads to rows that are global or owned by the active
// tenant. It is a no-op when no tenant is active. table qualifies the column
// for joined queries and may be empty.
func Scope(tc shared.TenantContext, table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !tc.IsActive() {
			return db
		}
		col := Column
		if table != "" {
			col = table + "." + Column
		}
		return db.Where(fmt.Sprintf("(%s IS NULL OR %s = ?)", col, col), tc.ID())
	}
}

// ScopeKey restricts rows to the scope partition of tc. Unlike Scope it does
// not include global rows, and it applies when no tenant is active.
func ScopeKey(tc shared.TenantContext) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(ScopeColumn+" = ?", tc.ScopeKey())
	}
}

// Bind returns db bound to ctx and tc with Scope applied
func Bind(ctx context.Context, db *gorm.DB, tc shared.TenantContext, table string) *gorm.DB {
	return db.WithContext(WithContext(ctx, tc)).Scopes(Scope(tc, table))
}
