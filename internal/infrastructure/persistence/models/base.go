package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantScopedModel provides the persistence fields of tenant-scoped aggregate
// roots. Each model declares its own Scope column because the scope leads
// every per-tenant unique index of that table.
type TenantScopedModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// FromDomainTenantAggregateRoot populates the model from a domain TenantAggregateRoot
func (m *TenantScopedModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.TenantID = t.TenantID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
}

// ToDomainTenantAggregateRoot rebuilds the domain aggregate root fields
func (m *TenantScopedModel) ToDomainTenantAggregateRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
		},
		TenantID: m.TenantID,
	}
}

// ScopeOf returns the scope key stored for a row owned by tenantID
func ScopeOf(tenantID *uuid.UUID) string {
	if tenantID == nil {
		return shared.GlobalScope
	}
	return tenantID.String()
}
