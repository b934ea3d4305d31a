package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	contextx "github.com/blueplan/recipebot/internal/recipebot/context"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type CORSMiddleware struct {
	origins []string
	logger  *logx.Logger
}

func NewCORSMiddleware(cfg *config.APIConfig, logger *logx.Logger) *CORSMiddleware {
	return &CORSMiddleware{
		origins: cfg.CORSOrigins,
		logger:  logger,
	}
}

func (cm *CORSMiddleware) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if cm.isOriginAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
		} else if cm.allowsAny() {
			c.Header("Access-Control-Allow-Origin", "*")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (cm *CORSMiddleware) allowsAny() bool {
	for _, o := range cm.origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// isOriginAllowed matches exact origins and single leading or trailing "*"
// wildcards such as "*.example.com".
func (cm *CORSMiddleware) isOriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range cm.origins {
		switch {
		case allowed == "*":
			continue
		case allowed == origin:
			return true
		case strings.HasPrefix(allowed, "*") && strings.HasSuffix(origin, allowed[1:]):
			return true
		case strings.HasSuffix(allowed, "*") && strings.HasPrefix(origin, allowed[:len(allowed)-1]):
			return true
		}
	}
	return false
}

// RequestID propagates X-Request-ID, minting a uuid when the caller sent none,
// and stores it in the request context for the logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(contextx.WithRequireID(c.Request.Context(), id))
		c.Next()
	}
}

type LoggingMiddleware struct {
	logger *logx.Logger
}

func NewLoggingMiddleware(logger *logx.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (lm *LoggingMiddleware) LogRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logx.Field{
			logx.KV("method", c.Request.Method),
			logx.KV("path", c.Request.URL.Path),
			logx.KV("status", c.Writer.Status()),
			logx.KV("latency", time.Since(start)),
			logx.KV("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logx.KV("error", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			lm.logger.Error(c.Request.Context(), "http request", fields...)
			return
		}
		lm.logger.Info(c.Request.Context(), "http request", fields...)
	}
}

type RequestSizeLimit struct {
	maxSize int64
	logger  *logx.Logger
}

func NewRequestSizeLimit(maxSize int64, logger *logx.Logger) *RequestSizeLimit {
	return &RequestSizeLimit{maxSize: maxSize, logger: logger}
}

func (rsl *RequestSizeLimit) LimitRequestSize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rsl.maxSize <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > rsl.maxSize {
			rsl.logger.Warn(c.Request.Context(), "request body too large",
				logx.KV("content_length", c.Request.ContentLength),
				logx.KV("max_size", rsl.maxSize),
				logx.KV("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, Response{
				Code:    http.StatusRequestEntityTooLarge,
				Message: "request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, rsl.maxSize)
		c.Next()
	}
}

type RecoveryMiddleware struct {
	logger *logx.Logger
}

func NewRecoveryMiddleware(logger *logx.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: logger}
}

func (rm *RecoveryMiddleware) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		rm.logger.Error(c.Request.Context(), "panic while handling request",
			logx.KV("panic", recovered),
			logx.KV("method", c.Request.Method),
			logx.KV("path", c.Request.URL.Path),
			logx.KV("client_ip", c.ClientIP()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
	})
}
