// Package identity resolves and manages the tenants that scope every unit of work.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantCache holds resolved tenants under their id and slug keys
type TenantCache interface {
	Get(ctx context.Context, key string) (*identity.Tenant, bool)
	Set(ctx context.Context, key string, tenant *identity.Tenant)
	Delete(ctx context.Context, keys ...string)
}

// TenantService creates tenants and resolves tenant references
type TenantService struct {
	tenantRepo identity.TenantRepository
	cache      TenantCache
	clock      shared.Clock
	logger     *zap.Logger
}

// NewTenantService creates a new tenant service. cache may be nil.
func NewTenantService(tenantRepo identity.TenantRepository, cache TenantCache, clock shared.Clock, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{
		tenantRepo: tenantRepo,
		cache:      cache,
		clock:      clock,
		logger:     logger,
	}
}

// CreateTenantInput contains input for creating a tenant
type CreateTenantInput struct {
	Name string
	Slug string
}

// Create registers a tenant with a unique slug
func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*identity.Tenant, error) {
	tenant, err := identity.NewTenant(input.Name, input.Slug, s.clock.Now())
	if err != nil {
		return nil, err
	}
	existing, err := s.tenantRepo.FindBySlug(ctx, tenant.Slug)
	if err != nil && !errors.Is(err, identity.ErrTenantNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, identity.ErrTenantSlugTaken
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	s.logger.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
	)
	return tenant, nil
}

// Rename changes the display name of a tenant
func (s *TenantService) Rename(ctx context.Context, id uuid.UUID, name string) (*identity.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.Rename(name, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, idKey(tenant.ID), slugKey(tenant.Slug))
	}
	return tenant, nil
}

// Resolve looks a tenant up by id or slug. ref is tried as a uuid first.
func (s *TenantService) Resolve(ctx context.Context, ref string) (*identity.Tenant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, identity.ErrTenantNotFound
	}

	key := slugKey(strings.ToLower(ref))
	id, parseErr := uuid.Parse(ref)
	if parseErr == nil {
		key = idKey(id)
	}
	if s.cache != nil {
		if tenant, ok := s.cache.Get(ctx, key); ok {
			return tenant, nil
		}
	}

	var (
		tenant *identity.Tenant
		err    error
	)
	if parseErr == nil {
		tenant, err = s.tenantRepo.FindByID(ctx, id)
	} else {
		tenant, err = s.tenantRepo.FindBySlug(ctx, strings.ToLower(ref))
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, idKey(tenant.ID), tenant)
		s.cache.Set(ctx, slugKey(tenant.Slug), tenant)
	}
	return tenant, nil
}

// ResolveContext resolves ref into the TenantContext of a unit of work
func (s *TenantService) ResolveContext(ctx context.Context, ref string) (shared.TenantContext, error) {
	tenant, err := s.Resolve(ctx, ref)
	if err != nil {
		return shared.NoTenant(), err
	}
	return tenant.Context(), nil
}

func idKey(id uuid.UUID) string { return "id:" + id.String() }

func slugKey(slug string) string { return "slug:" + slug }
