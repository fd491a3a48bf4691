package mw

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/metrics"
)

const msgTooManyRequests = "Too many requests"

// IPRateLimiter stores a rate limiter for each client IP. Entries expire
// after idle, so the table does not grow without bound.
type IPRateLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	r        rate.Limit
	b        int
	idle     time.Duration
}

// NewIPRateLimiter creates a limiter allowing r events per second with
// burst b per IP.
func NewIPRateLimiter(r rate.Limit, b int, idle time.Duration) *IPRateLimiter {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &IPRateLimiter{
		limiters: cache.New(idle, 2*idle),
		r:        r,
		b:        b,
		idle:     idle,
	}
}

// GetLimiter returns the limiter for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if v, found := i.limiters.Get(ip); found {
		limiter := v.(*rate.Limiter)
		// Touch to push back expiry.
		i.limiters.Set(ip, limiter, i.idle)
		return limiter
	}
	limiter := rate.NewLimiter(i.r, i.b)
	i.limiters.Set(ip, limiter, i.idle)
	return limiter
}

// Allow reports whether a request from ip may proceed now.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

// Len returns the number of tracked IPs.
func (i *IPRateLimiter) Len() int {
	return i.limiters.ItemCount()
}

// RateLimit is a middleware for IP-based rate limiting. Rejected requests get
// 429 with an error body.
func RateLimit(limiter *IPRateLimiter, rec metrics.Recorder, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			rec.RecordRateLimited(c.FullPath())
			logger.WarnContext(c.Request.Context(), "rate limited",
				slog.String("client_ip", c.ClientIP()),
				slog.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", "1")
			AbortWithError(c, logger, apperr.TooManyRequests(msgTooManyRequests))
			return
		}
		c.Next()
	}
}
