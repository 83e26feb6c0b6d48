package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	goCache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key. Buckets idle for two
// windows are evicted.
type RateLimiter struct {
	buckets *goCache.Cache
	limit   int
	window  time.Duration
}

// NewRateLimiter allows limit requests per window and client, with bursts
// of up to limit requests
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: goCache.New(2*window, 2*window),
		limit:   limit,
		window:  window,
	}
}

func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	if v, ok := rl.buckets.Get(key); ok {
		rl.buckets.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)
	if err := rl.buckets.Add(key, l, goCache.DefaultExpiration); err != nil {
		// lost the race to another request of the same client
		if v, ok := rl.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Allow checks if a request from the given key should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	return rl.bucket(key).Allow()
}

// Remaining returns the number of whole tokens left for the given key
func (rl *RateLimiter) Remaining(key string) int {
	v, ok := rl.buckets.Get(key)
	if !ok {
		return rl.limit
	}
	return max(0, int(v.(*rate.Limiter).Tokens()))
}

// RateLimit returns a rate limiting middleware keyed by tenant scope and
// client IP. It must run after Tenant.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetTenantContext(c).ScopeKey() + ":" + c.ClientIP()

		if !limiter.Allow(key) {
			abort(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
