package sales

import (
	"time"

	"github.com/erp/posledger/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateSaleInput is the checkout request
type CreateSaleInput struct {
	// StoreID defaults to the actor's store
	StoreID        uuid.UUID
	CustomerID     *uuid.UUID
	Items          []SaleItemInput
	Payments       []PaymentInput
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	// Status is COMPLETED or PENDING; empty means COMPLETED
	Status string
}

// SaleItemInput is one checkout line. Cost is snapshotted from the product.
type SaleItemInput struct {
	ProductID uuid.UUID
	Quantity  int64
	Price     decimal.Decimal
}

// PaymentInput is one tender at checkout
type PaymentInput struct {
	Method   string
	Amount   decimal.Decimal
	Tendered *decimal.Decimal
}

// CreateReturnInput is the refund request
type CreateReturnInput struct {
	SaleID uuid.UUID
	// StoreID defaults to the actor's store, then to the sale's store
	StoreID uuid.UUID
	Lines   []sales.ReturnLine
	Reason  string
}

// SaleItemResponse is a sale line in API responses
type SaleItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int64           `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
	CostAtSale  decimal.Decimal `json:"cost_at_sale"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PaymentResponse is a tender in API responses
type PaymentResponse struct {
	Method   string          `json:"method"`
	Amount   decimal.Decimal `json:"amount"`
	Tendered decimal.Decimal `json:"tendered"`
	Change   decimal.Decimal `json:"change"`
}

// SaleResponse is a sale in API responses
type SaleResponse struct {
	ID              uuid.UUID          `json:"id"`
	StoreID         uuid.UUID          `json:"store_id"`
	UserID          uuid.UUID          `json:"user_id"`
	CustomerID      *uuid.UUID         `json:"customer_id,omitempty"`
	TillSessionID   *uuid.UUID         `json:"till_session_id,omitempty"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	Total           decimal.Decimal    `json:"total"`
	Status          string             `json:"status"`
	PaymentMethod   string             `json:"payment_method"`
	StatusReason    string             `json:"status_reason,omitempty"`
	StatusChangedAt *time.Time         `json:"status_changed_at,omitempty"`
	Items           []SaleItemResponse `json:"items"`
	Payments        []PaymentResponse  `json:"payments"`
	CreatedAt       time.Time          `json:"created_at"`
	Version         int                `json:"version"`
}

// ReturnItemResponse is a refunded line in API responses
type ReturnItemResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     int64           `json:"quantity"`
	Restock      bool            `json:"restock"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// ReturnResponse is a sales return in API responses
type ReturnResponse struct {
	ID              uuid.UUID            `json:"id"`
	SaleID          uuid.UUID            `json:"sale_id"`
	StoreID         uuid.UUID            `json:"store_id"`
	CreatedBy       uuid.UUID            `json:"created_by"`
	Total           decimal.Decimal      `json:"total"`
	Reason          string               `json:"reason,omitempty"`
	CashOutRecorded bool                 `json:"cash_out_recorded"`
	Items           []ReturnItemResponse `json:"items"`
	CreatedAt       time.Time            `json:"created_at"`
	// Set on the response of CreateReturn only
	CashTransactionID *uuid.UUID `json:"cash_transaction_id,omitempty"`
	RefundGapID       *uuid.UUID `json:"refund_gap_id,omitempty"`
}

// ToSaleResponse converts a sale
func ToSaleResponse(s *sales.Sale) *SaleResponse {
	resp := &SaleResponse{
		ID:              s.ID,
		StoreID:         s.StoreID,
		UserID:          s.UserID,
		CustomerID:      s.CustomerID,
		TillSessionID:   s.TillSessionID,
		Subtotal:        s.Subtotal,
		DiscountAmount:  s.DiscountAmount,
		TaxAmount:       s.TaxAmount,
		Total:           s.Total,
		Status:          s.Status.Normalize().String(),
		PaymentMethod:   s.PaymentMethod.String(),
		StatusReason:    s.StatusReason,
		StatusChangedAt: s.StatusChangedAt,
		Items:           make([]SaleItemResponse, len(s.Items)),
		Payments:        make([]PaymentResponse, len(s.Payments)),
		CreatedAt:       s.CreatedAt,
		Version:         s.Version,
	}
	for i, item := range s.Items {
		resp.Items[i] = SaleItemResponse{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtSale: item.PriceAtSale,
			CostAtSale:  item.CostAtSale,
			LineTotal:   item.LineTotal(),
		}
	}
	for i, p := range s.Payments {
		resp.Payments[i] = PaymentResponse{
			Method:   p.Method.String(),
			Amount:   p.Amount,
			Tendered: p.Tendered,
			Change:   p.Change(),
		}
	}
	return resp
}

// ToReturnResponse converts a return
func ToReturnResponse(r *sales.SalesReturn) *ReturnResponse {
	resp := &ReturnResponse{
		ID:              r.ID,
		SaleID:          r.SaleID,
		StoreID:         r.StoreID,
		CreatedBy:       r.CreatedBy,
		Total:           r.Total,
		Reason:          r.Reason,
		CashOutRecorded: r.CashOutRecorded,
		Items:           make([]ReturnItemResponse, len(r.Items)),
		CreatedAt:       r.CreatedAt,
	}
	for i, item := range r.Items {
		resp.Items[i] = ReturnItemResponse{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			Restock:      item.Restock,
			RefundAmount: item.RefundAmount,
		}
	}
	return resp
}
