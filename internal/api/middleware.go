package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/irlobby/internal/logger"
	"github.com/oggyb/irlobby/internal/observability"
)

const headerRequestID = "X-Request-Id"

// RequestLogger tags every request with a request id and attaches a request
// scoped logger to its context. One access line is logged per request,
// carrying the trace ids when otelgin started a span.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := observability.RequestIDFromRequest(c.Request)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(headerRequestID, reqID)

		l := base.With("request_id", reqID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), l))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", observability.IPFromRequest(c.Request),
		}
		if uid := currentUser(c); uid != 0 {
			attrs = append(attrs, "user_id", uid)
		}
		if c.Writer.Status() >= 500 {
			l.ErrorContext(c.Request.Context(), "request", attrs...)
			return
		}
		l.InfoContext(c.Request.Context(), "request", attrs...)
	}
}
