// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the per-caller token-bucket limiter mounted on the
// authenticated invitation routes. Buckets live in process memory and are
// keyed by the authenticated username, so a horizontally scaled deployment
// enforces the limit per replica. Callers holding a shared-secret token act
// for many users and are never limited.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	// bucketIdle is how long a bucket may go unused before a sweep drops it.
	bucketIdle = 10 * time.Minute
	// sweepEvery bounds how often a sweep runs.
	sweepEvery = time.Minute
)

var rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "invitations",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-caller rate limiter.",
})

func init() {
	prometheus.MustRegister(rateLimited)
}

// KeyFunc maps a request to the bucket it draws from.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys on the username set by Authenticate and falls back to
// the client IP when the limiter runs ahead of authentication.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if s := c.GetString(userIDKey); s != "" {
			return "user:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim  *rate.Limiter
	used time.Time
}

// RateLimiter is a set of token buckets, one per key. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	key   KeyFunc
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter allows rps sustained requests per key with bursts of up to
// burst. A burst below 1 is raised to 1.
func NewRateLimiter(rps float64, burst int, key KeyFunc) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		key:     key,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// limiterFor returns the bucket for key, creating it if needed. Idle buckets
// are swept at most once per sweepEvery, before key is touched.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.used) >= bucketIdle {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.used = now
	return b.lim
}

// IsRateBypass reports whether the caller authenticated with a shared-secret
// token.
func IsRateBypass(c *gin.Context) bool {
	u := UserFrom(c)
	return u != nil && u.Secret
}

// Handler rejects over-limit requests with 429 TooManyRequestsError and a
// Retry-After header giving the whole seconds until the next token.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		res := rl.limiterFor(rl.key(c), now).ReserveN(now, 1)
		wait := res.DelayFrom(now)
		if res.OK() && wait == 0 {
			c.Next()
			return
		}
		res.CancelAt(now)

		rateLimited.Inc()
		c.Header("Retry-After", retryAfter(wait))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "TooManyRequestsError",
			"message":    "rate limit exceeded",
		})
	}
}

func retryAfter(d time.Duration) string {
	if d <= 0 || d == rate.InfDuration {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
