// Package middleware provides HTTP middleware for the POS ledger API.
package middleware

import (
	"net/http"

	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig returns otelgin middleware. Server spans carry the
// request id; identity attributes are added by TracingAttributeInjector once
// the caller is authenticated.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector copies request identity onto the active span.
// Place it after JWTAuthMiddleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
		c.Next()
	}
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if id := c.GetString(logger.RequestIDKey); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if id := c.GetString(JWTTenantIDKey); id != "" {
		span.SetAttributes(attribute.String("tenant_id", id))
	}
	if id := c.GetString(JWTStoreIDKey); id != "" {
		span.SetAttributes(attribute.String("store_id", id))
	}
	if id := c.GetString(JWTUserIDKey); id != "" {
		span.SetAttributes(attribute.String("user_id", id))
	}
}

// SpanErrorMarker marks the server span as failed for 4xx/5xx responses.
// Place it after TracingWithConfig.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
