package models

import (
	"time"

	"github.com/erp/posledger/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root
type SaleModel struct {
	TenantAggregateModel
	StoreID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null"`
	CustomerID      *uuid.UUID      `gorm:"type:uuid"`
	TillSessionID   *uuid.UUID      `gorm:"type:uuid;index"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status          string          `gorm:"type:varchar(30);not null;index"`
	PaymentMethod   string          `gorm:"type:varchar(20)"`
	StatusReason    string          `gorm:"type:varchar(500)"`
	StatusChangedAt *time.Time
	Items           []SaleItemModel    `gorm:"foreignKey:SaleID;references:ID"`
	Payments        []SalePaymentModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the model and its lines to a domain Sale
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		StoreID:             m.StoreID,
		UserID:              m.UserID,
		CustomerID:          m.CustomerID,
		TillSessionID:       m.TillSessionID,
		Subtotal:            m.Subtotal,
		DiscountAmount:      m.DiscountAmount,
		TaxAmount:           m.TaxAmount,
		Total:               m.Total,
		Status:              sales.SaleStatus(m.Status),
		PaymentMethod:       sales.PaymentMethod(m.PaymentMethod),
		StatusReason:        m.StatusReason,
		StatusChangedAt:     m.StatusChangedAt,
		Items:               make([]sales.SaleItem, len(m.Items)),
		Payments:            make([]sales.SalePayment, len(m.Payments)),
	}
	for i, item := range m.Items {
		s.Items[i] = item.ToDomain()
	}
	for i, p := range m.Payments {
		s.Payments[i] = p.ToDomain()
	}
	return s
}

// SaleModelFromDomain creates a model, with lines, from a domain Sale
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{
		StoreID:         s.StoreID,
		UserID:          s.UserID,
		CustomerID:      s.CustomerID,
		TillSessionID:   s.TillSessionID,
		Subtotal:        s.Subtotal,
		DiscountAmount:  s.DiscountAmount,
		TaxAmount:       s.TaxAmount,
		Total:           s.Total,
		Status:          string(s.Status),
		PaymentMethod:   string(s.PaymentMethod),
		StatusReason:    s.StatusReason,
		StatusChangedAt: s.StatusChangedAt,
		Items:           make([]SaleItemModel, len(s.Items)),
		Payments:        make([]SalePaymentModel, len(s.Payments)),
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	for i, item := range s.Items {
		m.Items[i] = SaleItemModel{
			ID:          item.ID,
			SaleID:      s.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtSale: item.PriceAtSale,
			CostAtSale:  item.CostAtSale,
		}
	}
	for i, p := range s.Payments {
		m.Payments[i] = SalePaymentModel{
			ID:       p.ID,
			SaleID:   s.ID,
			Method:   string(p.Method),
			Amount:   p.Amount,
			Tendered: p.Tendered,
		}
	}
	return m
}

// SaleItemModel is an immutable sale line
type SaleItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    int64           `gorm:"not null"`
	PriceAtSale decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CostAtSale  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the model to a domain SaleItem
func (m *SaleItemModel) ToDomain() sales.SaleItem {
	return sales.SaleItem{
		ID:          m.ID,
		SaleID:      m.SaleID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		PriceAtSale: m.PriceAtSale,
		CostAtSale:  m.CostAtSale,
	}
}

// SalePaymentModel is one tender of a sale
type SalePaymentModel struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method   string          `gorm:"type:varchar(20);not null"`
	Amount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Tendered decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SalePaymentModel) TableName() string {
	return "sale_payments"
}

// ToDomain converts the model to a domain SalePayment
func (m *SalePaymentModel) ToDomain() sales.SalePayment {
	return sales.SalePayment{
		ID:       m.ID,
		SaleID:   m.SaleID,
		Method:   sales.PaymentMethod(m.Method),
		Amount:   m.Amount,
		Tendered: m.Tendered,
	}
}

// SalesReturnModel is the persistence model of a refund
type SalesReturnModel struct {
	TenantAggregateModel
	SaleID          uuid.UUID              `gorm:"type:uuid;not null;index"`
	StoreID         uuid.UUID              `gorm:"type:uuid;not null;index"`
	CreatedBy       uuid.UUID              `gorm:"type:uuid;not null"`
	Total           decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Reason          string                 `gorm:"type:varchar(500)"`
	CashOutRecorded bool                   `gorm:"not null;default:false;index"`
	Items           []SalesReturnItemModel `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesReturnModel) TableName() string {
	return "sales_returns"
}

// ToDomain converts the model and its items to a domain SalesReturn
func (m *SalesReturnModel) ToDomain() *sales.SalesReturn {
	r := &sales.SalesReturn{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SaleID:              m.SaleID,
		StoreID:             m.StoreID,
		CreatedBy:           m.CreatedBy,
		Total:               m.Total,
		Reason:              m.Reason,
		CashOutRecorded:     m.CashOutRecorded,
		Items:               make([]sales.SalesReturnItem, len(m.Items)),
	}
	for i, item := range m.Items {
		r.Items[i] = sales.SalesReturnItem{
			ID:           item.ID,
			ReturnID:     item.ReturnID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			Restock:      item.Restock,
			RefundAmount: item.RefundAmount,
		}
	}
	return r
}

// SalesReturnModelFromDomain creates a model, with items, from a domain SalesReturn
func SalesReturnModelFromDomain(r *sales.SalesReturn) *SalesReturnModel {
	m := &SalesReturnModel{
		SaleID:          r.SaleID,
		StoreID:         r.StoreID,
		CreatedBy:       r.CreatedBy,
		Total:           r.Total,
		Reason:          r.Reason,
		CashOutRecorded: r.CashOutRecorded,
		Items:           make([]SalesReturnItemModel, len(r.Items)),
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	for i, item := range r.Items {
		m.Items[i] = SalesReturnItemModel{
			ID:           item.ID,
			ReturnID:     r.ID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			Restock:      item.Restock,
			RefundAmount: item.RefundAmount,
		}
	}
	return m
}

// SalesReturnItemModel is one returned line
type SalesReturnItemModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReturnID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     int64           `gorm:"not null"`
	Restock      bool            `gorm:"not null;default:false"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SalesReturnItemModel) TableName() string {
	return "sales_return_items"
}
