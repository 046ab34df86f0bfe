package till

import (
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeTillSession   = "TillSession"
	AggregateTypeRefundCashGap = "RefundCashGap"

	EventTypeTillSessionOpened     = "TillSessionOpened"
	EventTypeTillSessionClosed     = "TillSessionClosed"
	EventTypeRefundCashGapRecorded = "RefundCashGapRecorded"
)

// TillSessionOpenedEvent is published after a session opens
type TillSessionOpenedEvent struct {
	shared.BaseDomainEvent
	TillID       uuid.UUID       `json:"till_id"`
	StoreID      uuid.UUID       `json:"store_id"`
	UserID       uuid.UUID       `json:"user_id"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

// NewTillSessionOpenedEvent creates a TillSessionOpenedEvent
func NewTillSessionOpenedEvent(s *TillSession) *TillSessionOpenedEvent {
	return &TillSessionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTillSessionOpened, AggregateTypeTillSession, s.ID, s.TenantID),
		TillID:          s.TillID,
		StoreID:         s.StoreID,
		UserID:          s.UserID,
		OpeningFloat:    s.OpeningFloat,
	}
}

// TillSessionClosedEvent is published after a session closes
type TillSessionClosedEvent struct {
	shared.BaseDomainEvent
	TillID        uuid.UUID       `json:"till_id"`
	StoreID       uuid.UUID       `json:"store_id"`
	ExpectedCash  decimal.Decimal `json:"expected_cash"`
	ClosingCash   decimal.Decimal `json:"closing_cash"`
	Variance      decimal.Decimal `json:"variance"`
	VarianceLevel VarianceLevel   `json:"variance_level"`
}

// NewTillSessionClosedEvent creates a TillSessionClosedEvent
func NewTillSessionClosedEvent(s *TillSession) *TillSessionClosedEvent {
	ev := &TillSessionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTillSessionClosed, AggregateTypeTillSession, s.ID, s.TenantID),
		TillID:          s.TillID,
		StoreID:         s.StoreID,
		VarianceLevel:   s.VarianceLevel,
	}
	if s.ExpectedCash != nil {
		ev.ExpectedCash = *s.ExpectedCash
	}
	if s.ClosingCash != nil {
		ev.ClosingCash = *s.ClosingCash
	}
	if s.Variance != nil {
		ev.Variance = *s.Variance
	}
	return ev
}

// RefundCashGapRecordedEvent is published when a cash refund has no session
type RefundCashGapRecordedEvent struct {
	shared.BaseDomainEvent
	StoreID    uuid.UUID       `json:"store_id"`
	SaleID     uuid.UUID       `json:"sale_id"`
	ReturnID   uuid.UUID       `json:"return_id"`
	Amount     decimal.Decimal `json:"amount"`
	DetectedBy GapSource       `json:"detected_by"`
}

// NewRefundCashGapRecordedEvent creates a RefundCashGapRecordedEvent
func NewRefundCashGapRecordedEvent(g *RefundCashGap) *RefundCashGapRecordedEvent {
	return &RefundCashGapRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundCashGapRecorded, AggregateTypeRefundCashGap, g.ID, g.TenantID),
		StoreID:         g.StoreID,
		SaleID:          g.SaleID,
		ReturnID:        g.ReturnID,
		Amount:          g.Amount,
		DetectedBy:      g.DetectedBy,
	}
}
