package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karmachain/feedback-engine/engine/core"
	"github.com/karmachain/feedback-engine/pkg/logger"
)

const requestIDHeader = "X-Request-ID"
const requestIDKey = "request_id"

// RequestIDMiddleware assigns each request a sortable ID, honoring an ID
// the caller already set.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = core.MustNewID().String()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Set(requestIDKey, id)
		c.Next()
	}
}

// LoggerMiddleware attaches a request-scoped logger to the request context
// and logs request completion. Handlers retrieve the logger with
// logger.FromContext.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		reqLog := log
		if id := c.GetString(requestIDKey); id != "" {
			reqLog = log.With(requestIDKey, id)
		}
		ctx := logger.ContextWithLogger(c.Request.Context(), reqLog)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if raw != "" {
			path = path + "?" + raw
		}
		reqLog.Info("Request completed",
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"status_code", c.Writer.Status(),
			"body_size", c.Writer.Size(),
			"path", path,
		)
	}
}
