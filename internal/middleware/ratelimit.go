package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"mamane/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

// RateLimit spends one token from the caller's bucket for action. It must run after
// Identity.Required. A limiter failure lets the request through.
func RateLimit(bucket *redis.TokenBucket, action string, log *slog.Logger) gin.HandlerFunc {
	limit := strconv.FormatInt(bucket.Capacity(), 10)
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		allowed, remaining, err := bucket.Allow(c.Request.Context(), userID, action)
		if err != nil {
			log.Warn("rate limit check failed", "action", action, "user_id", userID, "err", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", "60")
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
