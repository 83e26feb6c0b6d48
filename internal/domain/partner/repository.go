package partner

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// PartyFilter narrows party listings
type PartyFilter struct {
	shared.Filter
	ClientsOnly   bool
	SuppliersOnly bool
	State         PartyState
}

// PartyRepository defines the interface for party persistence.
// Every method is scoped by tc and ignores soft-deleted rows.
type PartyRepository interface {
	// FindByID finds a party visible to tc
	FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*Party, error)
	// FindByTaxIDHash finds the non-deleted party holding hash
	FindByTaxIDHash(ctx context.Context, tc shared.TenantContext, hash string) (*Party, error)
	// ExistsTaxIDHash reports whether a party other than excludeID holds hash
	ExistsTaxIDHash(ctx context.Context, tc shared.TenantContext, hash string, excludeID uuid.UUID) (bool, error)
	// FindAll lists parties matching filter and returns the total count
	FindAll(ctx context.Context, tc shared.TenantContext, filter PartyFilter) ([]Party, int64, error)
	// Create inserts a new party. A unique violation is reported as
	// ErrDuplicateTaxID or shared.ErrNumberConflict.
	Create(ctx context.Context, tc shared.TenantContext, party *Party) error
	// Update persists changes of an existing party
	Update(ctx context.Context, tc shared.TenantContext, party *Party) error
}
