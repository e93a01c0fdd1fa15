package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/turtacn/patentdesk/pkg/errors"
)

// RateLimitInfo describes the caller's budget after a request.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter decides whether the request identified by key may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key. Buckets idle for longer than
// the idle timeout are dropped by Cleanup.
type KeyedLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewKeyedLimiter allows rps sustained requests per key with bursts of up
// to burst.
func NewKeyedLimiter(rps float64, burst int, idle time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow consumes one token from key's bucket.
func (l *KeyedLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	allowed := v.limiter.AllowN(now, 1)
	tokens := v.limiter.TokensAt(now)

	info := RateLimitInfo{Limit: l.burst, Remaining: int(math.Max(0, math.Floor(tokens)))}
	if missing := 1 - tokens; missing > 0 && l.rps > 0 {
		info.ResetAt = now.Add(time.Duration(missing / float64(l.rps) * float64(time.Second)))
	} else {
		info.ResetAt = now
	}
	return allowed, info
}

// Cleanup drops buckets idle longer than the idle timeout and returns how
// many remain.
func (l *KeyedLimiter) Cleanup() int {
	cutoff := l.now().Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, k)
		}
	}
	return len(l.visitors)
}

// Run calls Cleanup every idle interval until ctx is done.
func (l *KeyedLimiter) Run(ctx context.Context) {
	if l.idle <= 0 {
		return
	}
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// RateLimit rejects callers that exceed limiter with 429, keyed by client IP.
// The X-RateLimit-* headers are set on every response.
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, info := limiter.Allow(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(math.Ceil(time.Until(info.ResetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, errors.New(errors.ErrCodeTooManyRequests, "rate limit exceeded, please retry later"))
			return
		}
		c.Next()
	}
}
