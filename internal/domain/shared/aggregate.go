package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	domainEvents []DomainEvent
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// TenantAggregateRoot extends BaseAggregateRoot with an optional tenant.
// A nil TenantID marks a legacy row that is visible to every tenant.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID *uuid.UUID
}

// NewTenantAggregateRoot creates an aggregate root stamped with the active tenant
func NewTenantAggregateRoot(tc TenantContext, now time.Time) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{BaseEntity: NewBaseEntity(now)},
		TenantID:          tc.Stamp(),
	}
}

// VisibleTo reports whether the aggregate may be read under tc
func (t *TenantAggregateRoot) VisibleTo(tc TenantContext) bool {
	return tc.Allows(t.TenantID)
}
