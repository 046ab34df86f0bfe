// Package event holds the handlers that react to committed ledger events.
package event

import (
	"context"

	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/telemetry"
)

// LedgerRecorder is the subset of telemetry.LedgerMetrics the handler feeds
type LedgerRecorder interface {
	RecordSale(ctx context.Context, tenantID, paymentMethod string, total float64)
	RecordReturn(ctx context.Context, tenantID string, refund float64)
	RecordRefundGap(ctx context.Context, tenantID, source string)
	RecordStockMovement(ctx context.Context, tenantID, eventType string)
	RecordNegativeStock(ctx context.Context, tenantID string)
	RecordSessionClosed(ctx context.Context, tenantID, level string, variance float64)
}

var _ LedgerRecorder = (*telemetry.LedgerMetrics)(nil)

// MetricsHandler turns ledger events into business metrics
type MetricsHandler struct {
	metrics LedgerRecorder
}

// NewMetricsHandler creates a MetricsHandler
func NewMetricsHandler(metrics LedgerRecorder) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes lists the events that carry a metric
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		sales.EventTypeSaleCreated,
		sales.EventTypeSalesReturnCreated,
		inventory.EventTypeStockAdjusted,
		inventory.EventTypeStockReceived,
		inventory.EventTypeStockReturned,
		inventory.EventTypeStockNegative,
		till.EventTypeTillSessionClosed,
		till.EventTypeRefundCashGapRecorded,
	}
}

// Handle records the metric for one event
func (h *MetricsHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	tenant := ev.TenantID().String()
	switch e := ev.(type) {
	case *sales.SaleCreatedEvent:
		h.metrics.RecordSale(ctx, tenant, e.PaymentMethod.String(), e.Total.InexactFloat64())
	case *sales.SalesReturnCreatedEvent:
		h.metrics.RecordReturn(ctx, tenant, e.Total.InexactFloat64())
	case *inventory.StockAdjustedEvent:
		h.metrics.RecordStockMovement(ctx, tenant, string(e.Movement))
	case *inventory.StockReceivedEvent:
		h.metrics.RecordStockMovement(ctx, tenant, string(inventory.EventTypeReceiveStock))
	case *inventory.StockReturnedEvent:
		h.metrics.RecordStockMovement(ctx, tenant, string(inventory.EventTypeReturn))
	case *inventory.StockNegativeEvent:
		h.metrics.RecordNegativeStock(ctx, tenant)
	case *till.TillSessionClosedEvent:
		h.metrics.RecordSessionClosed(ctx, tenant, string(e.VarianceLevel), e.Variance.InexactFloat64())
	case *till.RefundCashGapRecordedEvent:
		h.metrics.RecordRefundGap(ctx, tenant, string(e.DetectedBy))
	}
	return nil
}
