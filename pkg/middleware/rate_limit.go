package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// TTL is how long an idle client keeps its limiter
	TTL time.Duration
}

type rateLimiter struct {
	cfg      RateLimiterConfig
	mu       sync.Mutex
	visitors *ttlcache.Cache
}

func (r *rateLimiter) get(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, err := r.visitors.Get(ip); err == nil {
		return v.(*rate.Limiter)
	}

	l := rate.NewLimiter(rate.Limit(r.cfg.RequestsPerSecond), r.cfg.Burst)
	if err := r.visitors.Set(ip, l); err != nil {
		zap.L().Warn("Failed to track rate limit visitor", zap.Error(err))
	}

	return l
}

// NewRateLimiterMiddleware limits requests per client IP. Idle clients are
// evicted from the visitor cache after cfg.TTL.
func NewRateLimiterMiddleware(cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.TTL == 0 {
		cfg.TTL = 3 * time.Minute
	}

	cache := ttlcache.NewCache()
	if err := cache.SetTTL(cfg.TTL); err != nil {
		zap.L().Warn("Failed to set visitor cache ttl", zap.Error(err))
	}

	rl := &rateLimiter{cfg: cfg, visitors: cache}

	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many requests",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
