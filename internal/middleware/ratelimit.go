package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/pkg/logger"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client key.
type IPRateLimiter struct {
	ips   map[string]*rateLimiterEntry
	mu    sync.Mutex
	r     rate.Limit
	burst int
	idle  time.Duration
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows r events per second with the given burst per key.
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		ips:   make(map[string]*rateLimiterEntry),
		r:     r,
		burst: burst,
		idle:  3 * time.Minute,
	}
	go rl.cleanup()
	return rl
}

func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.prune(time.Now())
	}
}

func (rl *IPRateLimiter) prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.ips {
		if now.Sub(entry.lastSeen) > rl.idle {
			delete(rl.ips, key)
		}
	}
}

// GetLimiter returns the limiter for key, creating it on first use.
func (rl *IPRateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.ips[key]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

var (
	// Auth endpoints: 20 requests per minute
	AuthLimiter = NewIPRateLimiter(rate.Limit(20.0/60.0), 10)

	// General API: 600 requests per minute
	GeneralLimiter = NewIPRateLimiter(rate.Limit(10.0), 50)

	// Chat sends: 30 per minute
	ChatLimiter = NewIPRateLimiter(rate.Limit(30.0/60.0), 10)

	// Uploads: 10 per minute
	UploadLimiter = NewIPRateLimiter(rate.Limit(10.0/60.0), 5)
)

// RateLimitMiddleware rejects requests over the limiter's budget with 429.
// Authenticated requests are keyed by user, anonymous ones by IP.
func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID := CurrentUserID(c); userID != "" {
			key = "user:" + userID
		}

		if !limiter.GetLimiter(key).Allow() {
			logger.Warn().
				Str("key", key).
				Str("path", c.Request.URL.Path).
				Msg("Rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Rate limit exceeded. Please slow down.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func AuthRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(AuthLimiter)
}

func GeneralRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(GeneralLimiter)
}

func ChatRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(ChatLimiter)
}

func UploadRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(UploadLimiter)
}
