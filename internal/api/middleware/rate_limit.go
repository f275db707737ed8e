package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"hirely/internal/pkg/errors"
	"hirely/internal/platform/config"
)

const (
	LimitParseSubmit = "parse_submit"
	LimitCallback    = "callback"
	LimitAPIRead     = "api_read"

	defaultLimit  = 100
	idleBucketTTL = 10 * time.Minute
)

type RateLimiter struct {
	store  *sync.Map // map[string]*Bucket
	limits map[string]int
	now    func() time.Time
}

type Bucket struct {
	limiter    *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		store: &sync.Map{},
		limits: map[string]int{
			LimitParseSubmit: cfg.ParseSubmitPerMinute,
			LimitCallback:    cfg.CallbackPerMinute,
			LimitAPIRead:     cfg.APIReadPerMinute,
		},
		now: time.Now,
	}
}

// Run evicts idle buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(idleBucketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	now := rl.now()
	rl.store.Range(func(key, value interface{}) bool {
		bucket := value.(*Bucket)
		bucket.mu.Lock()
		if now.Sub(bucket.lastAccess) > idleBucketTTL {
			rl.store.Delete(key)
		}
		bucket.mu.Unlock()
		return true
	})
}

// Allow takes one token from the bucket for key, refilling at limit per minute.
func (rl *RateLimiter) Allow(key string, limit int) bool {
	now := rl.now()

	val, _ := rl.store.LoadOrStore(key, &Bucket{
		limiter:    rate.NewLimiter(rate.Limit(float64(limit)/60.0), limit),
		lastAccess: now,
	})

	bucket := val.(*Bucket)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.lastAccess = now
	return bucket.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) limitFor(limitType string) int {
	if limit, ok := rl.limits[limitType]; ok && limit > 0 {
		return limit
	}
	return defaultLimit
}

// Limit keys buckets by authenticated user when available, otherwise by client IP.
func (rl *RateLimiter) Limit(limitType string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var key string
			if claims, ok := ClaimsFrom(r.Context()); ok {
				key = fmt.Sprintf("user:%s:%s", claims.UserID(), limitType)
			} else {
				key = fmt.Sprintf("ip:%s:%s", clientIP(r), limitType)
			}

			if !rl.Allow(key, rl.limitFor(limitType)) {
				w.Header().Set("Retry-After", "60")
				errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
				return
			}

			next(w, r)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
