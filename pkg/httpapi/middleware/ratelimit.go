package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiterConfig configures the per-client token bucket, grounded on the
// teacher's pkg/api/middleware/rate_limiter.go unchanged: this HTTP API
// serves the same kind of small trusted client set (a browse UI, the
// Telegram callback webhook) so the teacher's single global limiter
// applies without modification.
type RateLimiterConfig struct {
	RequestsPerMinute int
	BurstSize         int
	CleanupInterval   time.Duration
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 100,
		BurstSize:         20,
		CleanupInterval:   5 * time.Minute,
	}
}

type clientBucket struct {
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// RateLimiter is a token-bucket limiter keyed by client IP/forwarded-for.
type RateLimiter struct {
	clients   map[string]*clientBucket
	mu        sync.RWMutex
	rate      float64
	maxTokens float64
	interval  time.Duration
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		clients:   make(map[string]*clientBucket),
		rate:      float64(cfg.RequestsPerMinute) / 60.0,
		maxTokens: float64(cfg.BurstSize),
		interval:  cfg.CleanupInterval,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-rl.interval)
		rl.mu.Lock()
		for key, bucket := range rl.clients {
			bucket.mu.Lock()
			stale := bucket.lastRefill.Before(cutoff)
			bucket.mu.Unlock()
			if stale {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	bucket, exists := rl.clients[clientID]
	if !exists {
		bucket = &clientBucket{tokens: rl.maxTokens, lastRefill: time.Now()}
		rl.clients[clientID] = bucket
	}
	rl.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now()
	bucket.tokens += now.Sub(bucket.lastRefill).Seconds() * rl.rate
	if bucket.tokens > rl.maxTokens {
		bucket.tokens = rl.maxTokens
	}
	bucket.lastRefill = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader("X-Forwarded-For")
		if clientID == "" {
			clientID = c.ClientIP()
		}
		if !rl.Allow(clientID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": "60s",
			})
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware builds a rate limiter with sensible defaults.
func RateLimitMiddleware() gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimiterConfig()).Middleware()
}

// RateLimitMiddlewareWithConfig builds a rate limiter with a caller-supplied
// config, used by tests that need a tight burst to exercise the 429 path.
func RateLimitMiddlewareWithConfig(cfg RateLimiterConfig) gin.HandlerFunc {
	return NewRateLimiter(cfg).Middleware()
}
