package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	scopeKey
)

// Scope identifies who and what a log line belongs to
type Scope struct {
	RequestID string
	TenantID  string
	StoreID   string
	UserID    string
}

// WithContext attaches a logger to ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the attached logger or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithScope merges non-empty fields of s into the scope stored in ctx
func WithScope(ctx context.Context, s Scope) context.Context {
	cur := ScopeFrom(ctx)
	if s.RequestID != "" {
		cur.RequestID = s.RequestID
	}
	if s.TenantID != "" {
		cur.TenantID = s.TenantID
	}
	if s.StoreID != "" {
		cur.StoreID = s.StoreID
	}
	if s.UserID != "" {
		cur.UserID = s.UserID
	}
	return context.WithValue(ctx, scopeKey, cur)
}

// ScopeFrom returns the scope stored in ctx
func ScopeFrom(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey).(Scope)
	return s
}

// L returns the context logger with scope and trace ids attached.
//
//	logger.L(ctx).Warn("refund without open session", zap.Stringer("sale_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	fields := make([]zap.Field, 0, 6)
	s := ScopeFrom(ctx)
	if s.RequestID != "" {
		fields = append(fields, zap.String("request_id", s.RequestID))
	}
	if s.TenantID != "" {
		fields = append(fields, zap.String("tenant_id", s.TenantID))
	}
	if s.StoreID != "" {
		fields = append(fields, zap.String("store_id", s.StoreID))
	}
	if s.UserID != "" {
		fields = append(fields, zap.String("user_id", s.UserID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
