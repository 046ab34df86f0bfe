package till

import (
	"time"

	"github.com/erp/posledger/internal/domain/till"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TillResponse is a till in API responses
type TillResponse struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse is a till session in API responses
type SessionResponse struct {
	ID            uuid.UUID        `json:"id"`
	TillID        uuid.UUID        `json:"till_id"`
	StoreID       uuid.UUID        `json:"store_id"`
	UserID        uuid.UUID        `json:"user_id"`
	Status        string           `json:"status"`
	OpeningFloat  decimal.Decimal  `json:"opening_float"`
	ClosingCash   *decimal.Decimal `json:"closing_cash,omitempty"`
	ExpectedCash  *decimal.Decimal `json:"expected_cash,omitempty"`
	Variance      *decimal.Decimal `json:"variance,omitempty"`
	VarianceLevel string           `json:"variance_level,omitempty"`
	OpenedAt      time.Time        `json:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
	ClosedBy      *uuid.UUID       `json:"closed_by,omitempty"`
	ReconciledAt  *time.Time       `json:"reconciled_at,omitempty"`
}

// SummaryResponse is the cash position of a session
type SummaryResponse struct {
	SessionID    uuid.UUID                  `json:"session_id"`
	Status       string                     `json:"status"`
	OpeningFloat decimal.Decimal            `json:"opening_float"`
	CashSales    decimal.Decimal            `json:"cash_sales"`
	CashIn       decimal.Decimal            `json:"cash_in"`
	CashOut      decimal.Decimal            `json:"cash_out"`
	ChangeGiven  decimal.Decimal            `json:"change_given"`
	ByMethod     map[string]decimal.Decimal `json:"by_method"`
	SalesCount   int                        `json:"sales_count"`
	ExpectedCash decimal.Decimal            `json:"expected_cash"`
	ClosingCash  *decimal.Decimal           `json:"closing_cash,omitempty"`
	Variance     *decimal.Decimal           `json:"variance,omitempty"`
}

// CashMovementInput is a manual CASH_IN or CASH_OUT
type CashMovementInput struct {
	Type        string
	Amount      decimal.Decimal
	Reason      string
	Description string
}

// CashTransactionResponse is a cash movement in API responses
type CashTransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	Description   string          `json:"description,omitempty"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RefundGapResponse is a refund cash gap in API responses
type RefundGapResponse struct {
	ID                uuid.UUID       `json:"id"`
	StoreID           uuid.UUID       `json:"store_id"`
	SaleID            uuid.UUID       `json:"sale_id"`
	ReturnID          uuid.UUID       `json:"return_id"`
	UserID            uuid.UUID       `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	DetectedBy        string          `json:"detected_by"`
	ResolvedSessionID *uuid.UUID      `json:"resolved_session_id,omitempty"`
	ResolvedBy        *uuid.UUID      `json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ScanResult reports an audit pass
type ScanResult struct {
	Since    time.Time `json:"since"`
	Examined int       `json:"examined"`
	Recorded int       `json:"recorded"`
}

func toTillResponse(t *till.Till) *TillResponse {
	return &TillResponse{ID: t.ID, StoreID: t.StoreID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func toSessionResponse(s *till.TillSession) *SessionResponse {
	return &SessionResponse{
		ID:            s.ID,
		TillID:        s.TillID,
		StoreID:       s.StoreID,
		UserID:        s.UserID,
		Status:        string(s.Status),
		OpeningFloat:  s.OpeningFloat,
		ClosingCash:   s.ClosingCash,
		ExpectedCash:  s.ExpectedCash,
		Variance:      s.Variance,
		VarianceLevel: string(s.VarianceLevel),
		OpenedAt:      s.OpenedAt,
		ClosedAt:      s.ClosedAt,
		ClosedBy:      s.ClosedBy,
		ReconciledAt:  s.ReconciledAt,
	}
}

func toSummaryResponse(sum till.SessionSummary) *SummaryResponse {
	byMethod := make(map[string]decimal.Decimal, len(sum.ByMethod))
	for m, v := range sum.ByMethod {
		byMethod[m.String()] = v
	}
	return &SummaryResponse{
		SessionID:    sum.SessionID,
		Status:       string(sum.Status),
		OpeningFloat: sum.OpeningFloat,
		CashSales:    sum.CashSales,
		CashIn:       sum.CashIn,
		CashOut:      sum.CashOut,
		ChangeGiven:  sum.ChangeGiven,
		ByMethod:     byMethod,
		SalesCount:   sum.SalesCount,
		ExpectedCash: sum.ExpectedCash,
		ClosingCash:  sum.ClosingCash,
		Variance:     sum.Variance,
	}
}

func toCashTransactionResponse(c *till.CashTransaction) *CashTransactionResponse {
	return &CashTransactionResponse{
		ID:            c.ID,
		SessionID:     c.TillSessionID,
		Type:          string(c.Type),
		Amount:        c.Amount,
		Reason:        c.Reason,
		Description:   c.Description,
		ReferenceType: c.ReferenceType,
		ReferenceID:   c.ReferenceID,
		CreatedBy:     c.CreatedBy,
		CreatedAt:     c.CreatedAt,
	}
}

func toRefundGapResponse(g *till.RefundCashGap) *RefundGapResponse {
	return &RefundGapResponse{
		ID:                g.ID,
		StoreID:           g.StoreID,
		SaleID:            g.SaleID,
		ReturnID:          g.ReturnID,
		UserID:            g.UserID,
		Amount:            g.Amount,
		Status:            string(g.Status),
		DetectedBy:        string(g.DetectedBy),
		ResolvedSessionID: g.ResolvedSessionID,
		ResolvedBy:        g.ResolvedBy,
		ResolvedAt:        g.ResolvedAt,
		CreatedAt:         g.CreatedAt,
	}
}
