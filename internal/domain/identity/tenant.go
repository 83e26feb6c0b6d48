package identity

import (
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// Tenant is the isolation boundary: an organization whose data is never
// visible to another tenant.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTenant creates a tenant with a normalized slug
func NewTenant(name, slug string, now time.Time) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := validateTenantSlug(slug); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateTenantName(name); err != nil {
		return nil, err
	}
	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Rename changes the display name
func (t *Tenant) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if err := validateTenantName(name); err != nil {
		return err
	}
	t.Name = name
	t.UpdatedAt = now
	return nil
}

// Context returns the TenantContext for units of work run on behalf of t
func (t *Tenant) Context() shared.TenantContext {
	return shared.ForTenant(t.ID)
}

func validateTenantSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Tenant slug cannot be empty")
	}
	if len(slug) > 64 {
		return shared.NewDomainError("INVALID_SLUG", "Tenant slug cannot exceed 64 characters")
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("INVALID_SLUG", "Tenant slug can only contain lowercase letters, numbers, and hyphens")
		}
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return shared.NewDomainError("INVALID_SLUG", "Tenant slug cannot start or end with a hyphen")
	}
	return nil
}

func validateTenantName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}

// Domain errors raised by tenants
var (
	ErrTenantNotFound  = shared.NewDomainErrorOfKind(shared.KindNotFound, "TENANT_NOT_FOUND", "Tenant not found")
	ErrTenantSlugTaken = shared.NewDomainError("TENANT_SLUG_TAKEN", "Tenant slug is already in use")
)
