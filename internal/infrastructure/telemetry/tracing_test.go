package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, ok := StartServiceSpan(context.Background(), "sale", "create", attribute.String("store_id", "s1"))
	EndSpan(ok, nil)
	_, failed := StartServiceSpan(context.Background(), "return", "create")
	EndSpan(failed, errors.New("over return"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "sale.create", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("store_id", "s1"))
	assert.Equal(t, "return.create", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1)
}

func TestProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Meter("ledger"))
	assert.NoError(t, p.Shutdown(context.Background()))
}
