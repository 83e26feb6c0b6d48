package identity

import (
	"context"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindBySlug(ctx context.Context, slug string) (*identity.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

type mapCache map[string]*identity.Tenant

func (c mapCache) Get(_ context.Context, key string) (*identity.Tenant, bool) {
	t, ok := c[key]
	return t, ok
}

func (c mapCache) Set(_ context.Context, key string, tenant *identity.Tenant) { c[key] = tenant }

func (c mapCache) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		delete(c, k)
	}
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTenantService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates tenant", func(t *testing.T) {
		repo := new(MockTenantRepository)
		repo.On("FindBySlug", ctx, "acme").Return(nil, identity.ErrTenantNotFound)
		repo.On("Save", ctx, mock.AnythingOfType("*identity.Tenant")).Return(nil)
		svc := NewTenantService(repo, nil, shared.FixedClock(now), nil)

		tenant, err := svc.Create(ctx, CreateTenantInput{Name: "Acme", Slug: "ACME"})
		require.NoError(t, err)
		assert.Equal(t, "acme", tenant.Slug)
		repo.AssertExpectations(t)
	})

	t.Run("rejects taken slug", func(t *testing.T) {
		repo := new(MockTenantRepository)
		existing, _ := identity.NewTenant("Acme", "acme", now)
		repo.On("FindBySlug", ctx, "acme").Return(existing, nil)
		svc := NewTenantService(repo, nil, shared.FixedClock(now), nil)

		_, err := svc.Create(ctx, CreateTenantInput{Name: "Acme 2", Slug: "acme"})
		assert.ErrorIs(t, err, identity.ErrTenantSlugTaken)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestTenantService_Resolve(t *testing.T) {
	ctx := context.Background()
	tenant, err := identity.NewTenant("Acme", "acme", now)
	require.NoError(t, err)

	t.Run("by id then served from cache", func(t *testing.T) {
		repo := new(MockTenantRepository)
		repo.On("FindByID", ctx, tenant.ID).Return(tenant, nil).Once()
		cache := mapCache{}
		svc := NewTenantService(repo, cache, shared.FixedClock(now), nil)

		got, err := svc.Resolve(ctx, tenant.ID.String())
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, got.ID)

		tc, err := svc.ResolveContext(ctx, "ACME")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, tc.ID())
		repo.AssertNumberOfCalls(t, "FindByID", 1)
		repo.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
	})

	t.Run("by slug", func(t *testing.T) {
		repo := new(MockTenantRepository)
		repo.On("FindBySlug", ctx, "acme").Return(tenant, nil)
		svc := NewTenantService(repo, nil, shared.FixedClock(now), nil)

		got, err := svc.Resolve(ctx, " Acme ")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, got.ID)
	})

	t.Run("unknown reference", func(t *testing.T) {
		repo := new(MockTenantRepository)
		repo.On("FindBySlug", ctx, "nope").Return(nil, identity.ErrTenantNotFound)
		svc := NewTenantService(repo, nil, shared.FixedClock(now), nil)

		tc, err := svc.ResolveContext(ctx, "nope")
		assert.ErrorIs(t, err, identity.ErrTenantNotFound)
		assert.False(t, tc.IsActive())

		_, err = svc.Resolve(ctx, "")
		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	})

	t.Run("rename evicts cached entries", func(t *testing.T) {
		repo := new(MockTenantRepository)
		tn, _ := identity.NewTenant("Beta", "beta", now)
		repo.On("FindByID", ctx, tn.ID).Return(tn, nil)
		repo.On("Save", ctx, tn).Return(nil)
		cache := mapCache{idKey(tn.ID): tn, slugKey("beta"): tn}
		svc := NewTenantService(repo, cache, shared.FixedClock(now), nil)

		renamed, err := svc.Rename(ctx, tn.ID, "Beta II")
		require.NoError(t, err)
		assert.Equal(t, "Beta II", renamed.Name)
		assert.Empty(t, cache)
	})
}
