package middleware

import (
	"net/http"
	"strconv"
	"time"

	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	"campus-enrollment/internal/observability"
	"campus-enrollment/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RateLimit throttles each client per route. The key is the caller's user id
// when authenticated and the client IP otherwise. Limiter failures let the
// request through.
func RateLimit(limiter interfaces.RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if principal, ok := PrincipalFrom(c); ok {
			client = principal.UserID.String()
		}
		key := c.Request.Method + ":" + c.FullPath() + ":" + client

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			observability.RecordRateLimited()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
