package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// idleEvictAfter bounds the per-IP map: entries untouched this long are
// dropped on the next sweep.
const idleEvictAfter = 10 * time.Minute

type bucket struct {
	tokens   int
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket keyed by IP.
type RateLimiter struct {
	mu        sync.Mutex
	rate      int
	burst     int
	buckets   map[string]*bucket
	lastSweep time.Time
}

func NewRateLimiter(rate, burst int) *RateLimiter {
	return &RateLimiter{
		rate:      rate,
		burst:     burst,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		now := time.Now()
		rl.sweep(now)

		b, ok := rl.buckets[ip]
		if !ok {
			b = &bucket{tokens: rl.burst, lastSeen: now}
			rl.buckets[ip] = b
		}

		elapsed := now.Sub(b.lastSeen)
		b.lastSeen = now

		b.tokens += int(elapsed.Seconds()) * rl.rate
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}

		if b.tokens <= 0 {
			rl.mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		b.tokens--
		rl.mu.Unlock()

		c.Next()
	}
}

// sweep drops idle entries at most once per eviction window.
// Caller holds rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < idleEvictAfter {
		return
	}
	rl.lastSweep = now
	for ip, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= idleEvictAfter {
			delete(rl.buckets, ip)
		}
	}
}
