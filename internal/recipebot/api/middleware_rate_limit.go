package api

import (
	"fmt"
	"net/http"
	"strconv"

	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/utils"
	"github.com/gin-gonic/gin"
)

type RateLimitMiddleware struct {
	rateLimiter utils.RateLimiter
	logger      *logx.Logger
}

func NewRateLimitMiddleware(rateLimiter utils.RateLimiter, logger *logx.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// RateLimit answers 429 once the caller's window is full. Limiter failures
// let the request through.
func (rlm *RateLimitMiddleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rlm.generateRateLimitKey(c)

		allowed, err := rlm.rateLimiter.Allow(ctx, key)
		if err != nil {
			rlm.logger.Error(ctx, "rate limit check failed",
				logx.KV("error", err),
				logx.KV("key", key))
			c.Next()
			return
		}

		limitInfo, err := rlm.rateLimiter.GetLimitInfo(ctx, key)
		if err == nil && limitInfo != nil {
			c.Header("X-RateLimit-Limit", strconv.Itoa(limitInfo.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(limitInfo.Remaining))
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", limitInfo.ResetTime.Unix()))
		}

		if !allowed {
			if limitInfo != nil {
				c.Header("Retry-After", fmt.Sprintf("%.0f", limitInfo.Window.Seconds()))
			}
			rlm.logger.Warn(ctx, "request rate limited",
				logx.KV("key", key),
				logx.KV("path", c.Request.URL.Path),
				logx.KV("method", c.Request.Method))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
				Code:    http.StatusTooManyRequests,
				Message: "too many requests, please slow down",
			})
			return
		}
		c.Next()
	}
}

// generateRateLimitKey uses the user proven by the bearer token, else the
// client IP. User ids in the path or query are caller-chosen and never key
// the window.
func (rlm *RateLimitMiddleware) generateRateLimitKey(c *gin.Context) string {
	if userID := c.GetString(authUserKey); userID != "" {
		return "user:" + userID
	}
	if ip := c.ClientIP(); ip != "" {
		return "ip:" + ip
	}
	return "default"
}
