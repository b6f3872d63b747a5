package handler

import (
	"net/http"
	"time"

	"concierge/internal/model"
	"concierge/internal/observability"
	"concierge/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, stores a request-scoped
// logger in its context and logs the outcome
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(observability.WithRequestID(c.Request.Context(), base, requestID))

		c.Next()

		status := c.Writer.Status()
		event := observability.FromContext(c.Request.Context(), base).Info()
		if status >= http.StatusInternalServerError {
			event = observability.FromContext(c.Request.Context(), base).Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// RateLimit rejects clients over their request budget. When the limiter
// itself fails the request is let through.
func RateLimit(limiter ratelimit.Limiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			observability.FromContext(c.Request.Context(), log).Warn().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{Error: msgRateLimited})
			return
		}
		c.Next()
	}
}
