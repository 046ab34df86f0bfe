package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerMetrics are the business counters of the ledger
type LedgerMetrics struct {
	sales          metric.Int64Counter
	saleAmount     metric.Float64Counter
	returns        metric.Int64Counter
	refundAmount   metric.Float64Counter
	refundGaps     metric.Int64Counter
	stockMovements metric.Int64Counter
	negativeStock  metric.Int64Counter
	sessionsClosed metric.Int64Counter
	tillVariance   metric.Float64Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error
	if m.sales, err = meter.Int64Counter("ledger.sales.created", metric.WithDescription("Sales created")); err != nil {
		return nil, fmt.Errorf("sales counter: %w", err)
	}
	if m.saleAmount, err = meter.Float64Counter("ledger.sales.amount", metric.WithDescription("Sale totals"), metric.WithUnit("{currency}")); err != nil {
		return nil, fmt.Errorf("sale amount counter: %w", err)
	}
	if m.returns, err = meter.Int64Counter("ledger.returns.created", metric.WithDescription("Sales returns created")); err != nil {
		return nil, fmt.Errorf("returns counter: %w", err)
	}
	if m.refundAmount, err = meter.Float64Counter("ledger.returns.amount", metric.WithDescription("Refunded amounts"), metric.WithUnit("{currency}")); err != nil {
		return nil, fmt.Errorf("refund amount counter: %w", err)
	}
	if m.refundGaps, err = meter.Int64Counter("ledger.refund_gaps", metric.WithDescription("Cash refunds without a till cash-out")); err != nil {
		return nil, fmt.Errorf("refund gap counter: %w", err)
	}
	if m.stockMovements, err = meter.Int64Counter("ledger.inventory.movements", metric.WithDescription("Inventory events appended")); err != nil {
		return nil, fmt.Errorf("stock movement counter: %w", err)
	}
	if m.negativeStock, err = meter.Int64Counter("ledger.inventory.negative", metric.WithDescription("Movements leaving stock below zero")); err != nil {
		return nil, fmt.Errorf("negative stock counter: %w", err)
	}
	if m.sessionsClosed, err = meter.Int64Counter("ledger.till.sessions_closed", metric.WithDescription("Till sessions closed")); err != nil {
		return nil, fmt.Errorf("sessions closed counter: %w", err)
	}
	if m.tillVariance, err = meter.Float64Histogram("ledger.till.variance", metric.WithDescription("Counted minus expected cash at close"), metric.WithUnit("{currency}")); err != nil {
		return nil, fmt.Errorf("variance histogram: %w", err)
	}
	return m, nil
}

func tenantAttr(tenantID string) attribute.KeyValue {
	return attribute.String("tenant_id", tenantID)
}

// RecordSale counts a sale and its total
func (m *LedgerMetrics) RecordSale(ctx context.Context, tenantID, paymentMethod string, total float64) {
	attrs := metric.WithAttributes(tenantAttr(tenantID), attribute.String("payment_method", paymentMethod))
	m.sales.Add(ctx, 1, attrs)
	m.saleAmount.Add(ctx, total, attrs)
}

// RecordReturn counts a return and its refund
func (m *LedgerMetrics) RecordReturn(ctx context.Context, tenantID string, refund float64) {
	attrs := metric.WithAttributes(tenantAttr(tenantID))
	m.returns.Add(ctx, 1, attrs)
	m.refundAmount.Add(ctx, refund, attrs)
}

// RecordRefundGap counts an unmatched cash refund
func (m *LedgerMetrics) RecordRefundGap(ctx context.Context, tenantID, source string) {
	m.refundGaps.Add(ctx, 1, metric.WithAttributes(tenantAttr(tenantID), attribute.String("detected_by", source)))
}

// RecordStockMovement counts an inventory event by type
func (m *LedgerMetrics) RecordStockMovement(ctx context.Context, tenantID, eventType string) {
	m.stockMovements.Add(ctx, 1, metric.WithAttributes(tenantAttr(tenantID), attribute.String("type", eventType)))
}

// RecordNegativeStock counts a record going below zero
func (m *LedgerMetrics) RecordNegativeStock(ctx context.Context, tenantID string) {
	m.negativeStock.Add(ctx, 1, metric.WithAttributes(tenantAttr(tenantID)))
}

// RecordSessionClosed counts a close and records its variance
func (m *LedgerMetrics) RecordSessionClosed(ctx context.Context, tenantID, level string, variance float64) {
	attrs := metric.WithAttributes(tenantAttr(tenantID), attribute.String("variance_level", level))
	m.sessionsClosed.Add(ctx, 1, attrs)
	m.tillVariance.Record(ctx, variance, attrs)
}
