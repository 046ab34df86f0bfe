package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestLedgerMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSale(ctx, "t1", "CASH", 100)
	m.RecordSale(ctx, "t1", "CASH", 50.5)
	m.RecordReturn(ctx, "t1", 20)
	m.RecordRefundGap(ctx, "t1", "RETURN")
	m.RecordStockMovement(ctx, "t1", "ADJUSTMENT_REMOVE")
	m.RecordNegativeStock(ctx, "t1")
	m.RecordSessionClosed(ctx, "t1", "WARNING", -3.5)

	got := collect(t, reader)

	sales, ok := got["ledger.sales.created"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sales.DataPoints, 1)
	assert.Equal(t, int64(2), sales.DataPoints[0].Value)

	amount, ok := got["ledger.sales.amount"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	assert.InDelta(t, 150.5, amount.DataPoints[0].Value, 0.0001)

	variance, ok := got["ledger.till.variance"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, variance.DataPoints, 1)
	assert.Equal(t, uint64(1), variance.DataPoints[0].Count)

	for _, name := range []string{"ledger.returns.created", "ledger.refund_gaps", "ledger.inventory.movements", "ledger.inventory.negative", "ledger.till.sessions_closed"} {
		assert.Contains(t, got, name)
	}
}
