package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/cache"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader is the client supplied retry key
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// Idempotency rejects a repeated write carrying the same Idempotency-Key.
// Requests without the header pass through. The reservation is released
// when the handler fails so the client can retry.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.GetHeader(IdempotencyKeyHeader)
		if clientKey == "" {
			c.Next()
			return
		}
		requestID := c.GetString(logger.RequestIDKey)
		if len(clientKey) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "Idempotency-Key is too long", requestID))
			return
		}

		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required", requestID))
			return
		}

		ctx := c.Request.Context()
		key := cache.RequestKey(actor.TenantID.String(), actor.UserID.String(), c.FullPath(), clientKey)
		reserved, err := store.MarkProcessed(ctx, key, ttl)
		if err != nil {
			// store outage must not block checkout
			logger.L(ctx).Error("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.NewErrorResponse(dto.ErrCodeDuplicateRequest, "Request with this Idempotency-Key was already processed", requestID))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				logger.L(ctx).Warn("failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
