package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// CorrelationHeader echoes the id assigned to an accepted update, so one
// webhook delivery can be traced from access log to consumer log.
const CorrelationHeader = "X-Correlation-Id"

// RequestLogger logs information about incoming requests using slog.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
		}
		if id := c.Writer.Header().Get(CorrelationHeader); id != "" {
			fields = append(fields, slog.String("correlation_id", id))
		}
		logger.Info("http request", fields...)
	}
}
