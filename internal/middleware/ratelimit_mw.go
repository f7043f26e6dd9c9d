package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter caps how many requests each client may make per fixed
// window. Exceeding the cap yields 429, which well-behaved clients treat
// as "retry me" rather than a terminal failure.
type RateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	buckets   map[string]*windowCount
	lastSweep time.Time
}

type windowCount struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter creates a limiter allowing max requests per window per
// client key.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		window:  window,
		max:     max,
		buckets: make(map[string]*windowCount),
	}
}

// allow records one request for key and reports whether it fits in the
// current window.
func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[key] = &windowCount{windowStart: now, count: 1}
		return true
	}
	b.count++
	return b.count <= rl.max
}

// sweep drops buckets whose window has expired so keys for departed
// clients do not accumulate forever. Runs at most once per window; the
// caller must hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) >= rl.window {
			delete(rl.buckets, key)
		}
	}
}

// Middleware keys requests by authenticated user when available, falling
// back to the client IP for unauthenticated routes. Must run after
// JWTAuthMiddleware on protected routes.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := GetAuthUserID(c); ok {
			key = userID.String()
		}

		if !rl.allow(key, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please retry shortly"})
			return
		}
		c.Next()
	}
}
