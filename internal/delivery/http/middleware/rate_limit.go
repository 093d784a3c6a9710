package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go-jobboard-backend/internal/delivery/http/response"
	"go-jobboard-backend/pkg/logger"
	"go-jobboard-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix in the counter store
	KeyPrefix string
	// Whether to reject requests when the counter store is unavailable
	FailClosed bool
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// DefaultRateLimitConfig returns the global per-IP limit.
func DefaultRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "rl:ip:",
		KeyFunc:   clientIPKey,
	}
}

// LoginRateLimitConfig returns strict config specifically for auth endpoints
func LoginRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{
		Limit:      limit,
		Window:     window,
		KeyPrefix:  "rl:login:",
		FailClosed: true,
		KeyFunc:    clientIPKey,
	}
}

// RateLimitMiddleware counts requests per key in store and answers 429 once
// the window's limit is exceeded.
func RateLimitMiddleware(store security.CounterStore, config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = clientIPKey
	}
	return func(c *gin.Context) {
		fullKey := config.KeyPrefix + config.KeyFunc(c)

		count, ttl, err := store.Incr(c.Request.Context(), fullKey, config.Window)
		if err != nil {
			logger.Log.Warn("rate limit store unavailable", "error", err, "fail_closed", config.FailClosed)
			if config.FailClosed {
				response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if ttl <= 0 {
			ttl = config.Window
		}
		resetAt := time.Now().Add(ttl)

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))

		if count > config.Limit {
			retryAfter := int(ttl.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			security.DefaultLogger().LogRateLimitTriggered(
				c.Request.Context(),
				c.ClientIP(),
				c.GetHeader("User-Agent"),
				c.GetString("RequestID"),
				c.FullPath(),
			)
			response.Error(c, http.StatusTooManyRequests, "Request was throttled. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(config.Limit-count))
		c.Next()
	}
}
