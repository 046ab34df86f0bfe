// Package sales holds the sale and sales-return aggregates and the rules that
// keep refunds within what was sold.
package sales

import (
	"fmt"
	"time"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is an immutable sale line. CostAtSale is the product's unit cost
// when the sale was made and is never recomputed.
type SaleItem struct {
	ID          uuid.UUID
	SaleID      uuid.UUID
	ProductID   uuid.UUID
	Quantity    int64
	PriceAtSale decimal.Decimal
	CostAtSale  decimal.Decimal
}

// LineTotal returns price × quantity
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.PriceAtSale.Mul(decimal.NewFromInt(i.Quantity))
}

// LineCost returns cost × quantity
func (i SaleItem) LineCost() decimal.Decimal {
	return i.CostAtSale.Mul(decimal.NewFromInt(i.Quantity))
}

// ItemInput describes a line at checkout
type ItemInput struct {
	ProductID   uuid.UUID
	Quantity    int64
	PriceAtSale decimal.Decimal
	CostAtSale  decimal.Decimal
}

// Sale is the aggregate root for a checkout. Items and payments are fixed at
// creation; only Status changes afterwards, through TransitionTo.
type Sale struct {
	shared.TenantAggregateRoot
	StoreID         uuid.UUID
	UserID          uuid.UUID
	CustomerID      *uuid.UUID
	TillSessionID   *uuid.UUID
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	Status          SaleStatus
	PaymentMethod   PaymentMethod
	StatusReason    string
	StatusChangedAt *time.Time
	Items           []SaleItem
	Payments        []SalePayment
}

// NewSaleParams holds checkout input for NewSale
type NewSaleParams struct {
	TenantID       uuid.UUID
	StoreID        uuid.UUID
	UserID         uuid.UUID
	CustomerID     *uuid.UUID
	TillSessionID  *uuid.UUID
	Items          []ItemInput
	Payments       []PaymentInput
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	// Status is COMPLETED when empty. PENDING sales may be under-paid.
	Status SaleStatus
}

// NewSale validates checkout input and builds the sale with its totals
func NewSale(p NewSaleParams) (*Sale, error) {
	if p.TenantID == uuid.Nil || p.StoreID == uuid.Nil || p.UserID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant, store and user are required")
	}
	if len(p.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Sale must have at least one item")
	}
	if p.DiscountAmount.IsNegative() || p.TaxAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Discount and tax cannot be negative")
	}

	status := p.Status
	if status == "" {
		status = SaleStatusCompleted
	}
	if status != SaleStatusCompleted && status != SaleStatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "A new sale must be COMPLETED or PENDING")
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		StoreID:             p.StoreID,
		UserID:              p.UserID,
		CustomerID:          p.CustomerID,
		TillSessionID:       p.TillSessionID,
		DiscountAmount:      p.DiscountAmount,
		TaxAmount:           p.TaxAmount,
		Status:              status,
	}

	items, err := buildItems(sale.ID, p.Items)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	sale.Subtotal = subtotal
	sale.Total = subtotal.Sub(p.DiscountAmount).Add(p.TaxAmount)
	if sale.Total.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Discount cannot exceed the sale subtotal")
	}

	methods := make(map[PaymentMethod]struct{})
	for _, in := range p.Payments {
		payment, err := newSalePayment(sale.ID, in)
		if err != nil {
			return nil, err
		}
		sale.Payments = append(sale.Payments, payment)
		methods[payment.Method] = struct{}{}
	}
	switch len(methods) {
	case 0:
		sale.PaymentMethod = ""
	case 1:
		sale.PaymentMethod = sale.Payments[0].Method
	default:
		sale.PaymentMethod = PaymentMethodSplit
	}

	paid := sale.TotalPaid()
	switch status {
	case SaleStatusCompleted:
		if !shared.MoneyEqual(paid, sale.Total) {
			return nil, shared.NewDomainError(shared.CodePaymentMismatch,
				fmt.Sprintf("Payments %s do not match sale total %s", paid.StringFixed(2), sale.Total.StringFixed(2)))
		}
	case SaleStatusPending:
		if paid.Sub(sale.Total).GreaterThan(shared.MoneyTolerance) {
			return nil, shared.NewDomainError(shared.CodePaymentMismatch, "Payments exceed the sale total")
		}
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))
	return sale, nil
}

// buildItems validates lines and merges repeated products sold at one price.
// The same product at two different prices is rejected because returns are
// matched by product.
func buildItems(saleID uuid.UUID, inputs []ItemInput) ([]SaleItem, error) {
	items := make([]SaleItem, 0, len(inputs))
	index := make(map[uuid.UUID]int, len(inputs))
	for _, in := range inputs {
		if in.ProductID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product is required on every line")
		}
		if in.Quantity <= 0 {
			return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be positive")
		}
		if in.PriceAtSale.IsNegative() || in.CostAtSale.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Price and cost cannot be negative")
		}
		if pos, ok := index[in.ProductID]; ok {
			if !items[pos].PriceAtSale.Equal(in.PriceAtSale) {
				return nil, shared.NewDomainError(shared.CodeInvalidInput,
					fmt.Sprintf("Product %s appears at two different prices", in.ProductID))
			}
			items[pos].Quantity += in.Quantity
			continue
		}
		index[in.ProductID] = len(items)
		items = append(items, SaleItem{
			ID:          uuid.New(),
			SaleID:      saleID,
			ProductID:   in.ProductID,
			Quantity:    in.Quantity,
			PriceAtSale: in.PriceAtSale,
			CostAtSale:  in.CostAtSale,
		})
	}
	return items, nil
}

// ItemFor returns the line for a product, or nil
func (s *Sale) ItemFor(productID uuid.UUID) *SaleItem {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return &s.Items[i]
		}
	}
	return nil
}

// TotalPaid returns the sum of applied payment amounts
func (s *Sale) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// TotalCost returns Σ costAtSale × quantity
func (s *Sale) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineCost())
	}
	return total
}

// CashTendered returns the cash taken in across all payments
func (s *Sale) CashTendered() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		total = total.Add(p.CashReceived())
	}
	return total
}

// ChangeGiven returns the change handed back across all payments
func (s *Sale) ChangeGiven() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		total = total.Add(p.Change())
	}
	return total
}

// PaidWithCash reports whether the sale's payment method is CASH or SPLIT
func (s *Sale) PaidWithCash() bool {
	return s.PaymentMethod.InvolvesCash()
}

// TransitionTo moves the sale through the status state machine
func (s *Sale) TransitionTo(target SaleStatus, reason string) error {
	if !target.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown sale status %q", target))
	}
	target = target.Normalize()
	if !s.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidStatusTransition,
			fmt.Sprintf("Cannot change sale from %s to %s", s.Status, target))
	}
	if target == SaleStatusCompleted && !shared.MoneyEqual(s.TotalPaid(), s.Total) {
		return shared.NewDomainError(shared.CodePaymentMismatch, "A sale can only complete once fully paid")
	}
	from := s.Status
	now := time.Now().UTC()
	s.Status = target
	s.StatusReason = reason
	s.StatusChangedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleStatusChangedEvent(s, from))
	return nil
}
