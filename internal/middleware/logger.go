package middleware

import (
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "requestID"
)

// ZapLogger writes one access log line per request and exposes a logger
// tagged with the request ID under common.LoggerContextKey. An incoming
// X-Request-ID is reused, otherwise a new one is issued.
func ZapLogger(logger *zap.Logger, cfg *config.Config) gin.HandlerFunc {
	quietClientErrors := cfg.GinMode != gin.ReleaseMode

	return func(c *gin.Context) {
		began := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(RequestIDContextKey, requestID)
		c.Set(common.LoggerContextKey, logger.With(zap.String("request_id", requestID)))

		// Captured before handlers can rewrite the URL.
		method, path, rawQuery := c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := make([]zap.Field, 0, 10)
		fields = append(fields,
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", rawQuery),
			zap.Int("status_code", status),
			zap.Duration("latency", time.Since(began)),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
		if uid := common.GetUserIDFromContext(c); uid != uuid.Nil {
			fields = append(fields, zap.Stringer("user_id", uid))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.Strings("errors", errs.Errors()))
		}

		switch {
		case status >= 500:
			logger.Error("Server error", fields...)
		case status >= 400 && !quietClientErrors:
			logger.Warn("Client error", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}
