package event

import (
	"context"
	"testing"

	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordSale(ctx context.Context, tenantID, paymentMethod string, total float64) {
	m.Called(tenantID, paymentMethod, total)
}

func (m *mockRecorder) RecordReturn(ctx context.Context, tenantID string, refund float64) {
	m.Called(tenantID, refund)
}

func (m *mockRecorder) RecordRefundGap(ctx context.Context, tenantID, source string) {
	m.Called(tenantID, source)
}

func (m *mockRecorder) RecordStockMovement(ctx context.Context, tenantID, eventType string) {
	m.Called(tenantID, eventType)
}

func (m *mockRecorder) RecordNegativeStock(ctx context.Context, tenantID string) {
	m.Called(tenantID)
}

func (m *mockRecorder) RecordSessionClosed(ctx context.Context, tenantID, level string, variance float64) {
	m.Called(tenantID, level, variance)
}

func TestMetricsHandler_Sale(t *testing.T) {
	rec := new(mockRecorder)
	h := NewMetricsHandler(rec)

	tenantID := uuid.New()
	ev := &sales.SaleCreatedEvent{PaymentMethod: sales.PaymentMethodCash, Total: decimal.RequireFromString("12.50")}
	ev.TenantIDValue = tenantID
	rec.On("RecordSale", tenantID.String(), "CASH", 12.5).Once()

	require.NoError(t, h.Handle(context.Background(), ev))
	rec.AssertExpectations(t)
}

func TestMetricsHandler_NegativeStockAndGap(t *testing.T) {
	rec := new(mockRecorder)
	h := NewMetricsHandler(rec)

	tenantID := uuid.New()
	neg := inventory.NewStockNegativeEvent(&inventory.InventoryRecord{TenantID: tenantID, StoreID: uuid.New(), ProductID: uuid.New(), Quantity: -2})
	gap := &till.RefundCashGapRecordedEvent{DetectedBy: till.GapDetectedByAudit}
	gap.TenantIDValue = tenantID

	rec.On("RecordNegativeStock", tenantID.String()).Once()
	rec.On("RecordRefundGap", tenantID.String(), "AUDIT").Once()

	require.NoError(t, h.Handle(context.Background(), neg))
	require.NoError(t, h.Handle(context.Background(), gap))
	rec.AssertExpectations(t)
}

func TestMetricsHandler_SessionClosed(t *testing.T) {
	rec := new(mockRecorder)
	h := NewMetricsHandler(rec)

	variance := decimal.RequireFromString("-7.25")
	session := &till.TillSession{VarianceLevel: till.VarianceCritical, Variance: &variance}
	session.TenantID = uuid.New()
	ev := till.NewTillSessionClosedEvent(session)

	rec.On("RecordSessionClosed", session.TenantID.String(), "CRITICAL", -7.25).Once()
	require.NoError(t, h.Handle(context.Background(), ev))
	rec.AssertExpectations(t)
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))
	h := NewAuditLogHandler()

	t.Run("critical variance is logged", func(t *testing.T) {
		variance := decimal.RequireFromString("50")
		s := &till.TillSession{VarianceLevel: till.VarianceCritical, Variance: &variance}
		require.NoError(t, h.Handle(ctx, till.NewTillSessionClosedEvent(s)))
		assert.Equal(t, 1, logs.FilterMessage("critical till variance").Len())
	})

	t.Run("normal variance is not", func(t *testing.T) {
		s := &till.TillSession{VarianceLevel: till.VarianceNormal}
		require.NoError(t, h.Handle(ctx, till.NewTillSessionClosedEvent(s)))
		assert.Equal(t, 1, logs.FilterMessage("critical till variance").Len())
	})

	t.Run("void is logged as a correction", func(t *testing.T) {
		ev := &sales.SaleStatusChangedEvent{From: sales.SaleStatusCompleted, To: sales.SaleStatusVoid, Reason: "wrong drawer"}
		require.NoError(t, h.Handle(ctx, ev))
		entries := logs.FilterMessage("sale corrected").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "wrong drawer", entries[0].ContextMap()["reason"])
	})

	t.Run("refund gap", func(t *testing.T) {
		ev := &till.RefundCashGapRecordedEvent{Amount: decimal.NewFromInt(80), DetectedBy: till.GapDetectedAtReturn}
		require.NoError(t, h.Handle(ctx, ev))
		entries := logs.FilterMessage("refund cash gap recorded").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "80.00", entries[0].ContextMap()["amount"])
	})
}
