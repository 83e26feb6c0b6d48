package shared

import "github.com/google/uuid"

// GlobalScope is the scope key used when no tenant is active
const GlobalScope = "*"

// TenantContext is the immutable tenant of a unit of work. It is passed
// explicitly to every service and repository call; the zero value means no
// tenant is active (legacy single-tenant operation).
type TenantContext struct {
	id     uuid.UUID
	active bool
}

// ForTenant returns a context scoped to tenantID.
// uuid.Nil yields an inactive context.
func ForTenant(tenantID uuid.UUID) TenantContext {
	if tenantID == uuid.Nil {
		return TenantContext{}
	}
	return TenantContext{id: tenantID, active: true}
}

// NoTenant returns a context with no active tenant
func NoTenant() TenantContext {
	return TenantContext{}
}

// Current returns the active tenant, if any
func (tc TenantContext) Current() (uuid.UUID, bool) {
	return tc.id, tc.active
}

// IsActive reports whether a tenant is active
func (tc TenantContext) IsActive() bool {
	return tc.active
}

// ID returns the active tenant ID or uuid.Nil
func (tc TenantContext) ID() uuid.UUID {
	return tc.id
}

// Stamp returns the tenant_id value to store on newly created rows
func (tc TenantContext) Stamp() *uuid.UUID {
	if !tc.active {
		return nil
	}
	id := tc.id
	return &id
}

// Allows reports whether a row carrying rowTenant is visible.
// Unscoped (nil) rows are visible to everyone.
func (tc TenantContext) Allows(rowTenant *uuid.UUID) bool {
	if rowTenant == nil || !tc.active {
		return true
	}
	return *rowTenant == tc.id
}

// ScopeKey returns the key used to partition per-tenant unique data
// such as counters and tax id hashes.
func (tc TenantContext) ScopeKey() string {
	if !tc.active {
		return GlobalScope
	}
	return tc.id.String()
}

// String implements fmt.Stringer
func (tc TenantContext) String() string {
	return tc.ScopeKey()
}
