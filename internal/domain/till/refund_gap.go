package till

import (
	"time"

	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GapStatus is the state of a refund cash gap
type GapStatus string

const (
	GapPending  GapStatus = "PENDING"
	GapResolved GapStatus = "RESOLVED"
)

// GapSource records who noticed the gap
type GapSource string

const (
	// GapDetectedAtReturn is written by the refund itself when no open
	// session matched
	GapDetectedAtReturn GapSource = "RETURN"
	// GapDetectedByAudit is written by the offline reconciliation pass
	GapDetectedByAudit GapSource = "AUDIT"
)

// RefundCashGap marks a cash refund that left no CASH_OUT in any session.
// Until resolved, some drawer is short by Amount without a record of why.
type RefundCashGap struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	StoreID           uuid.UUID
	SaleID            uuid.UUID
	ReturnID          uuid.UUID
	UserID            uuid.UUID
	Amount            decimal.Decimal
	Status            GapStatus
	DetectedBy        GapSource
	ResolvedSessionID *uuid.UUID
	ResolvedBy        *uuid.UUID
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewRefundCashGap records a gap for a return
func NewRefundCashGap(ret *sales.SalesReturn, source GapSource) (*RefundCashGap, error) {
	if ret == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Sales return not found")
	}
	if ret.Total.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Refund gap amount must be positive")
	}
	now := time.Now().UTC()
	return &RefundCashGap{
		ID:         uuid.New(),
		TenantID:   ret.TenantID,
		StoreID:    ret.StoreID,
		SaleID:     ret.SaleID,
		ReturnID:   ret.ID,
		UserID:     ret.CreatedBy,
		Amount:     ret.Total,
		Status:     GapPending,
		DetectedBy: source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Resolve links the gap to the session that received the late CASH_OUT
func (g *RefundCashGap) Resolve(sessionID, resolvedBy uuid.UUID) error {
	if g.Status == GapResolved {
		return shared.NewDomainError(shared.CodeInvalidState, "Refund gap is already resolved")
	}
	now := time.Now().UTC()
	g.Status = GapResolved
	g.ResolvedSessionID = &sessionID
	g.ResolvedBy = &resolvedBy
	g.ResolvedAt = &now
	g.UpdatedAt = now
	return nil
}
