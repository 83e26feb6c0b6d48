// Package cache provides the two-tier tenant lookup cache: a process-local
// go-cache tier in front of an optional shared redis tier.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/erp/backoffice/internal/domain/identity"
	goCache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "backoffice:tenant:"

// TenantCache implements a read-through two-tier cache.
// L1: local in-memory cache, short TTL.
// L2: redis shared across instances; nil disables it.
type TenantCache struct {
	l1        *goCache.Cache
	l2        *redis.Client
	l1TTL     time.Duration
	l2TTL     time.Duration
	keyPrefix string
	logger    *zap.Logger

	l1Hits int64
	l2Hits int64
	misses int64
}

// TenantCacheOption is a functional option for configuring the cache
type TenantCacheOption func(*TenantCache)

// WithRedis enables the shared tier
func WithRedis(client *redis.Client) TenantCacheOption {
	return func(c *TenantCache) {
		c.l2 = client
	}
}

// WithKeyPrefix overrides the redis key prefix
func WithKeyPrefix(prefix string) TenantCacheOption {
	return func(c *TenantCache) {
		c.keyPrefix = prefix
	}
}

// WithLogger sets the logger for the cache
func WithLogger(logger *zap.Logger) TenantCacheOption {
	return func(c *TenantCache) {
		c.logger = logger
	}
}

// NewTenantCache creates a tenant cache. l1TTL bounds how long an instance
// may serve a stale tenant after another instance changed it.
func NewTenantCache(l1TTL, l2TTL time.Duration, opts ...TenantCacheOption) *TenantCache {
	if l1TTL <= 0 {
		l1TTL = time.Minute
	}
	if l2TTL <= 0 {
		l2TTL = 10 * time.Minute
	}
	c := &TenantCache{
		l1:        goCache.New(l1TTL, 2*l1TTL),
		l1TTL:     l1TTL,
		l2TTL:     l2TTL,
		keyPrefix: defaultKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a tenant (L1 -> L2). Redis failures degrade to a miss.
func (c *TenantCache) Get(ctx context.Context, key string) (*identity.Tenant, bool) {
	if v, ok := c.l1.Get(key); ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return v.(*identity.Tenant), true
	}
	if c.l2 == nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	raw, err := c.l2.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis tenant cache read failed", zap.String("key", key), zap.Error(err))
		}
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	var entry tenantEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("dropping corrupt tenant cache entry", zap.String("key", key), zap.Error(err))
		c.l2.Del(ctx, c.keyPrefix+key)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	tenant := entry.toDomain()
	c.l1.Set(key, tenant, c.l1TTL)
	atomic.AddInt64(&c.l2Hits, 1)
	return tenant, true
}

// Set stores a tenant in both tiers
func (c *TenantCache) Set(ctx context.Context, key string, tenant *identity.Tenant) {
	c.l1.Set(key, tenant, c.l1TTL)
	if c.l2 == nil {
		return
	}
	raw, err := json.Marshal(fromDomain(tenant))
	if err != nil {
		c.logger.Warn("failed to encode tenant", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.l2.Set(ctx, c.keyPrefix+key, raw, c.l2TTL).Err(); err != nil {
		c.logger.Warn("redis tenant cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes keys from both tiers
func (c *TenantCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	for _, k := range keys {
		c.l1.Delete(k)
	}
	if c.l2 == nil {
		return
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.keyPrefix + k
	}
	if err := c.l2.Del(ctx, prefixed...).Err(); err != nil {
		c.logger.Warn("redis tenant cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Stats returns hit counters
func (c *TenantCache) Stats() (l1Hits, l2Hits, misses int64) {
	return atomic.LoadInt64(&c.l1Hits), atomic.LoadInt64(&c.l2Hits), atomic.LoadInt64(&c.misses)
}

type tenantEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func fromDomain(t *identity.Tenant) tenantEntry {
	return tenantEntry{ID: t.ID.String(), Name: t.Name, Slug: t.Slug, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

func (e tenantEntry) toDomain() *identity.Tenant {
	t := &identity.Tenant{Name: e.Name, Slug: e.Slug, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
	_ = t.ID.UnmarshalText([]byte(e.ID))
	return t
}
