package event

import (
	"context"

	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes a warn-level audit line for events an operator
// should look at: money leaving without a record, negative stock, large till
// variances and manual corrections of sales.
type AuditLogHandler struct{}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler() *AuditLogHandler {
	return &AuditLogHandler{}
}

// EventTypes lists the audited events
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		sales.EventTypeSaleStatusChanged,
		inventory.EventTypeStockNegative,
		till.EventTypeTillSessionClosed,
		till.EventTypeRefundCashGapRecorded,
	}
}

// Handle logs the event when it is audit-worthy
func (h *AuditLogHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	l := logger.L(ctx).With(
		zap.String("audit", ev.EventType()),
		zap.String("tenant_id", ev.TenantID().String()),
		zap.String("aggregate_id", ev.AggregateID().String()))

	switch e := ev.(type) {
	case *sales.SaleStatusChangedEvent:
		if e.To.RequiresVoidCapability() {
			l.Warn("sale corrected",
				zap.String("from", e.From.String()),
				zap.String("to", e.To.String()),
				zap.String("reason", e.Reason))
		}
	case *inventory.StockNegativeEvent:
		l.Warn("stock below zero",
			zap.String("store_id", e.StoreID.String()),
			zap.String("product_id", e.ProductID.String()),
			zap.Int64("balance", e.Balance))
	case *till.TillSessionClosedEvent:
		if e.VarianceLevel == till.VarianceCritical {
			l.Warn("critical till variance",
				zap.String("till_id", e.TillID.String()),
				zap.String("expected_cash", e.ExpectedCash.StringFixed(2)),
				zap.String("closing_cash", e.ClosingCash.StringFixed(2)),
				zap.String("variance", e.Variance.StringFixed(2)))
		}
	case *till.RefundCashGapRecordedEvent:
		l.Warn("refund cash gap recorded",
			zap.String("store_id", e.StoreID.String()),
			zap.String("sale_id", e.SaleID.String()),
			zap.String("return_id", e.ReturnID.String()),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("detected_by", string(e.DetectedBy)))
	}
	return nil
}
