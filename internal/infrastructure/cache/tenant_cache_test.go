package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenant(t *testing.T) *identity.Tenant {
	tenant, err := identity.NewTenant("Acme", "acme", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return tenant
}

func TestTenantCache_LocalOnly(t *testing.T) {
	ctx := context.Background()
	c := NewTenantCache(time.Minute, 0)
	tenant := newTenant(t)

	_, ok := c.Get(ctx, "slug:acme")
	assert.False(t, ok)

	c.Set(ctx, "slug:acme", tenant)
	got, ok := c.Get(ctx, "slug:acme")
	require.True(t, ok)
	assert.Same(t, tenant, got)

	c.Delete(ctx, "slug:acme")
	_, ok = c.Get(ctx, "slug:acme")
	assert.False(t, ok)

	l1, l2, misses := c.Stats()
	assert.Equal(t, int64(1), l1)
	assert.Zero(t, l2)
	assert.Equal(t, int64(2), misses)
}

func TestTenantCache_Redis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	tenant := newTenant(t)

	writer := NewTenantCache(time.Minute, time.Hour, WithRedis(client))
	writer.Set(ctx, "id:"+tenant.ID.String(), tenant)
	assert.True(t, mr.Exists(defaultKeyPrefix+"id:"+tenant.ID.String()))

	t.Run("another instance reads through L2", func(t *testing.T) {
		reader := NewTenantCache(time.Minute, time.Hour, WithRedis(client))
		got, ok := reader.Get(ctx, "id:"+tenant.ID.String())
		require.True(t, ok)
		assert.Equal(t, tenant.ID, got.ID)
		assert.Equal(t, "acme", got.Slug)

		_, l2, _ := reader.Stats()
		assert.Equal(t, int64(1), l2)
	})

	t.Run("entries expire with the shared ttl", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)
		reader := NewTenantCache(time.Minute, time.Hour, WithRedis(client))
		_, ok := reader.Get(ctx, "id:"+tenant.ID.String())
		assert.False(t, ok)
	})

	t.Run("corrupt entries are dropped", func(t *testing.T) {
		require.NoError(t, mr.Set(defaultKeyPrefix+"slug:bad", "{not json"))
		reader := NewTenantCache(time.Minute, time.Hour, WithRedis(client))
		_, ok := reader.Get(ctx, "slug:bad")
		assert.False(t, ok)
		assert.False(t, mr.Exists(defaultKeyPrefix+"slug:bad"))
	})

	t.Run("redis outage degrades to miss", func(t *testing.T) {
		mr.Close()
		reader := NewTenantCache(time.Minute, time.Hour, WithRedis(client))
		_, ok := reader.Get(ctx, "slug:acme")
		assert.False(t, ok)
	})
}
