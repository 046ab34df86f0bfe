package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestWithScope_Merges(t *testing.T) {
	ctx := WithScope(context.Background(), Scope{RequestID: "req-1"})
	ctx = WithScope(ctx, Scope{TenantID: "t-1", UserID: "u-1"})

	s := ScopeFrom(ctx)
	assert.Equal(t, "req-1", s.RequestID)
	assert.Equal(t, "t-1", s.TenantID)
	assert.Equal(t, "u-1", s.UserID)
	assert.Empty(t, s.StoreID)
}

func TestL_AddsScopeFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithScope(ctx, Scope{RequestID: "req-9", TenantID: "tenant-a", StoreID: "store-b"})

	L(ctx).Info("sale created")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "tenant-a", fields["tenant_id"])
	assert.Equal(t, "store-b", fields["store_id"])
	assert.NotContains(t, fields, "user_id")
	assert.NotContains(t, fields, "trace_id")
}
