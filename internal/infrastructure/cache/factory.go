package cache

import (
	"context"
	"fmt"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Option configures NewIdempotencyStore
type Option func(*options)

type options struct {
	logger        *zap.Logger
	allowFallback bool
}

// WithLogger sets the logger used to report the chosen store
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Enabled by default.
func WithInMemoryFallback(allow bool) Option {
	return func(o *options) {
		o.allowFallback = allow
	}
}

// NewIdempotencyStore returns a Redis store when Redis answers, otherwise the
// in-memory store if fallback is allowed
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, opts ...Option) (shared.IdempotencyStore, error) {
	o := options{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := NewRedisIdempotencyStore(ctx, &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		o.logger.Info("using Redis idempotency store", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if !o.allowFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	o.logger.Warn("redis unavailable, using in-memory idempotency store; retries are only deduplicated per instance",
		zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}

// RequestKey scopes a client-supplied Idempotency-Key to the tenant, user
// and route that used it
func RequestKey(tenantID, userID, route, clientKey string) string {
	return tenantID + ":" + userID + ":" + route + ":" + clientKey
}
