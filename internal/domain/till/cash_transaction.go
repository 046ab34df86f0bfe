package till

import (
	"strings"
	"time"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashTransactionType is the direction of a cash movement
type CashTransactionType string

const (
	CashIn  CashTransactionType = "CASH_IN"
	CashOut CashTransactionType = "CASH_OUT"
)

// IsValid returns true if the type is known
func (t CashTransactionType) IsValid() bool {
	return t == CashIn || t == CashOut
}

// Reference types for cash movements
const (
	ReferenceManual     = "MANUAL"
	ReferenceSaleRefund = "SALE_REFUND"
)

// CashTransaction is an append-only cash movement in a session
type CashTransaction struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TillSessionID uuid.UUID
	Type          CashTransactionType
	Amount        decimal.Decimal
	Reason        string
	Description   string
	ReferenceType string
	ReferenceID   *uuid.UUID
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

// CashTransactionParams holds input for NewCashTransaction
type CashTransactionParams struct {
	Session       *TillSession
	Type          CashTransactionType
	Amount        decimal.Decimal
	Reason        string
	Description   string
	ReferenceType string
	ReferenceID   *uuid.UUID
	CreatedBy     uuid.UUID
}

// NewCashTransaction validates and creates a cash movement for a session.
// Whether the session still accepts movements is decided by the caller.
func NewCashTransaction(p CashTransactionParams) (*CashTransaction, error) {
	if p.Session == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Till session not found")
	}
	if !p.Type.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cash transaction type must be CASH_IN or CASH_OUT")
	}
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cash amount must be positive")
	}
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reason is required")
	}
	refType := p.ReferenceType
	if refType == "" {
		refType = ReferenceManual
	}
	return &CashTransaction{
		ID:            uuid.New(),
		TenantID:      p.Session.TenantID,
		TillSessionID: p.Session.ID,
		Type:          p.Type,
		Amount:        p.Amount,
		Reason:        reason,
		Description:   strings.TrimSpace(p.Description),
		ReferenceType: refType,
		ReferenceID:   p.ReferenceID,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Signed returns the amount as it affects the drawer
func (c CashTransaction) Signed() decimal.Decimal {
	if c.Type == CashOut {
		return c.Amount.Neg()
	}
	return c.Amount
}
