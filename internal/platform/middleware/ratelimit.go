package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimit applies a per-client token bucket keyed by remote IP. Buckets
// idle for more than ten minutes are dropped on the next sweep.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
		sweep   = time.Now()
	)

	max := float64(cfg.BurstSize)
	if max <= 0 {
		max = cfg.RequestsPerSecond
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			key := c.RealIP()

			mu.Lock()
			if now.Sub(sweep) > 10*time.Minute {
				for k, b := range buckets {
					if now.Sub(b.lastSeen) > 10*time.Minute {
						delete(buckets, k)
					}
				}
				sweep = now
			}

			b, ok := buckets[key]
			if !ok {
				b = &bucket{tokens: max, lastSeen: now}
				buckets[key] = b
			}

			elapsed := now.Sub(b.lastSeen).Seconds()
			b.tokens += elapsed * cfg.RequestsPerSecond
			if b.tokens > max {
				b.tokens = max
			}
			b.lastSeen = now

			allowed := b.tokens >= 1
			if allowed {
				b.tokens--
			}
			mu.Unlock()

			if !allowed {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
