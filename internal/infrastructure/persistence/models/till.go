package models

import (
	"time"

	"github.com/erp/posledger/internal/domain/till"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TillModel is the persistence model of a cash drawer
type TillModel struct {
	TenantAggregateModel
	StoreID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name    string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (TillModel) TableName() string {
	return "tills"
}

// ToDomain converts the model to a domain Till
func (m *TillModel) ToDomain() *till.Till {
	return &till.Till{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		StoreID:             m.StoreID,
		Name:                m.Name,
	}
}

// TillModelFromDomain creates a model from a domain Till
func TillModelFromDomain(t *till.Till) *TillModel {
	m := &TillModel{StoreID: t.StoreID, Name: t.Name}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}

// TillSessionModel is the persistence model of a till session.
// Postgres additionally enforces one OPEN session per till with a partial
// unique index created by the migrations.
type TillSessionModel struct {
	TenantAggregateModel
	TillID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	StoreID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_till_session_user_store,priority:2"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_till_session_user_store,priority:1"`
	Status        string           `gorm:"type:varchar(10);not null;index"`
	OpeningFloat  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ClosingCash   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ExpectedCash  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Variance      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	VarianceLevel string           `gorm:"type:varchar(10)"`
	OpenedAt      time.Time        `gorm:"not null"`
	ClosedAt      *time.Time
	ClosedBy      *uuid.UUID `gorm:"type:uuid"`
	ReconciledAt  *time.Time
}

// TableName returns the table name for GORM
func (TillSessionModel) TableName() string {
	return "till_sessions"
}

// ToDomain converts the model to a domain TillSession
func (m *TillSessionModel) ToDomain() *till.TillSession {
	return &till.TillSession{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		TillID:              m.TillID,
		StoreID:             m.StoreID,
		UserID:              m.UserID,
		Status:              till.SessionStatus(m.Status),
		OpeningFloat:        m.OpeningFloat,
		ClosingCash:         m.ClosingCash,
		ExpectedCash:        m.ExpectedCash,
		Variance:            m.Variance,
		VarianceLevel:       till.VarianceLevel(m.VarianceLevel),
		OpenedAt:            m.OpenedAt,
		ClosedAt:            m.ClosedAt,
		ClosedBy:            m.ClosedBy,
		ReconciledAt:        m.ReconciledAt,
	}
}

// TillSessionModelFromDomain creates a model from a domain TillSession
func TillSessionModelFromDomain(s *till.TillSession) *TillSessionModel {
	m := &TillSessionModel{
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
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// CashTransactionModel is one append-only cash movement
type CashTransactionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	TillSessionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type          string          `gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason        string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:varchar(500)"`
	ReferenceType string          `gorm:"type:varchar(30);not null"`
	ReferenceID   *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedBy     uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CashTransactionModel) TableName() string {
	return "cash_transactions"
}

// ToDomain converts the model to a domain CashTransaction
func (m *CashTransactionModel) ToDomain() till.CashTransaction {
	return till.CashTransaction{
		ID:            m.ID,
		TenantID:      m.TenantID,
		TillSessionID: m.TillSessionID,
		Type:          till.CashTransactionType(m.Type),
		Amount:        m.Amount,
		Reason:        m.Reason,
		Description:   m.Description,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// CashTransactionModelFromDomain creates a model from a domain CashTransaction
func CashTransactionModelFromDomain(c *till.CashTransaction) *CashTransactionModel {
	return &CashTransactionModel{
		ID:            c.ID,
		TenantID:      c.TenantID,
		TillSessionID: c.TillSessionID,
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

// RefundCashGapModel marks a cash refund that no session paid out
type RefundCashGapModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID            uuid.UUID       `gorm:"type:uuid;not null"`
	ReturnID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status            string          `gorm:"type:varchar(10);not null;index"`
	DetectedBy        string          `gorm:"type:varchar(10);not null"`
	ResolvedSessionID *uuid.UUID      `gorm:"type:uuid"`
	ResolvedBy        *uuid.UUID      `gorm:"type:uuid"`
	ResolvedAt        *time.Time
	CreatedAt         time.Time `gorm:"not null;index"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RefundCashGapModel) TableName() string {
	return "refund_cash_gaps"
}

// ToDomain converts the model to a domain RefundCashGap
func (m *RefundCashGapModel) ToDomain() *till.RefundCashGap {
	return &till.RefundCashGap{
		ID:                m.ID,
		TenantID:          m.TenantID,
		StoreID:           m.StoreID,
		SaleID:            m.SaleID,
		ReturnID:          m.ReturnID,
		UserID:            m.UserID,
		Amount:            m.Amount,
		Status:            till.GapStatus(m.Status),
		DetectedBy:        till.GapSource(m.DetectedBy),
		ResolvedSessionID: m.ResolvedSessionID,
		ResolvedBy:        m.ResolvedBy,
		ResolvedAt:        m.ResolvedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// RefundCashGapModelFromDomain creates a model from a domain RefundCashGap
func RefundCashGapModelFromDomain(g *till.RefundCashGap) *RefundCashGapModel {
	return &RefundCashGapModel{
		ID:                g.ID,
		TenantID:          g.TenantID,
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
		UpdatedAt:         g.UpdatedAt,
	}
}

// All returns every ledger model in dependency order, for AutoMigrate in
// tests and tooling
func All() []any {
	return []any{
		&ProductModel{},
		&InventoryRecordModel{},
		&InventoryEventModel{},
		&SaleModel{},
		&SaleItemModel{},
		&SalePaymentModel{},
		&SalesReturnModel{},
		&SalesReturnItemModel{},
		&TillModel{},
		&TillSessionModel{},
		&CashTransactionModel{},
		&RefundCashGapModel{},
	}
}
