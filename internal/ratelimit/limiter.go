// Package ratelimit provides per-IP token-bucket rate limiting for the
// read-only admin HTTP surface.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPLimiter rate-limits requests per client IP using a token bucket
// per key, with periodic cleanup so abandoned IPs don't accumulate
// forever.
type IPLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	cleanup  time.Duration
}

// NewIPLimiter creates a limiter allowing requestsPerSecond sustained
// throughput with the given burst, per client IP.
func NewIPLimiter(requestsPerSecond float64, burst int) *IPLimiter {
	l := &IPLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		cleanup:  5 * time.Minute,
	}
	go l.cleanupRoutine()
	return l
}

func (l *IPLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists = l.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.rate, l.burst)
	l.limiters[key] = limiter
	return limiter
}

// cleanupRoutine periodically resets the limiter map once it grows
// past a safety threshold, bounding memory under a churn of distinct
// client IPs.
func (l *IPLimiter) cleanupRoutine() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		if len(l.limiters) > 10_000 {
			l.limiters = make(map[string]*rate.Limiter)
		}
		l.mu.Unlock()
	}
}

// Allow reports whether a request from clientIP is allowed right now.
func (l *IPLimiter) Allow(clientIP string) bool {
	return l.getLimiter(clientIP).Allow()
}

// Middleware returns a gin middleware enforcing the per-IP limit,
// responding 429 when exceeded.
func (l *IPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": "too many requests to the admin surface, slow down",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
