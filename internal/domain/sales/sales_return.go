package sales

import (
	"fmt"
	"strings"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesReturnItem is one refunded line
type SalesReturnItem struct {
	ID           uuid.UUID
	ReturnID     uuid.UUID
	ProductID    uuid.UUID
	Quantity     int64
	Restock      bool
	RefundAmount decimal.Decimal
}

// SalesReturn is an immutable refund against exactly one sale
type SalesReturn struct {
	shared.TenantAggregateRoot
	SaleID    uuid.UUID
	StoreID   uuid.UUID
	CreatedBy uuid.UUID
	Total     decimal.Decimal
	Reason    string
	// CashOutRecorded is true once the refund has a CASH_OUT in some till
	// session. A cash refund left false is a reconciliation gap.
	CashOutRecorded bool
	Items           []SalesReturnItem
}

// ReturnLine is a requested return for one product
type ReturnLine struct {
	ProductID uuid.UUID
	Quantity  int64
	Restock   bool
}

// NewReturnParams holds input for NewSalesReturn
type NewReturnParams struct {
	Sale      *Sale
	Prior     []SalesReturn
	Lines     []ReturnLine
	StoreID   uuid.UUID
	CreatedBy uuid.UUID
	Reason    string
}

// ReturnedQuantities sums returned units per product over prior returns
func ReturnedQuantities(returns []SalesReturn) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64)
	for _, r := range returns {
		for _, item := range r.Items {
			out[item.ProductID] += item.Quantity
		}
	}
	return out
}

// RemainingQuantity returns how many units of productID can still be returned
func RemainingQuantity(sale *Sale, prior []SalesReturn, productID uuid.UUID) int64 {
	item := sale.ItemFor(productID)
	if item == nil {
		return 0
	}
	return item.Quantity - ReturnedQuantities(prior)[productID]
}

// NewSalesReturn validates the requested lines against the sale and all prior
// returns and prices the refund at priceAtSale × quantity.
//
// Cumulative returned quantity per product never exceeds the sold quantity.
// Lines repeating a product count together against that bound but keep
// their own restock flag, so part of a return can go back on the shelf
// while the rest is written off.
func NewSalesReturn(p NewReturnParams) (*SalesReturn, error) {
	if p.Sale == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Sale not found")
	}
	if len(p.Lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidReturnLine, "Return must have at least one line")
	}
	if p.CreatedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "User is required")
	}
	storeID := p.StoreID
	if storeID == uuid.Nil {
		storeID = p.Sale.StoreID
	}

	lines, err := mergeReturnLines(p.Lines)
	if err != nil {
		return nil, err
	}

	ret := &SalesReturn{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.Sale.TenantID),
		SaleID:              p.Sale.ID,
		StoreID:             storeID,
		CreatedBy:           p.CreatedBy,
		Reason:              strings.TrimSpace(p.Reason),
	}

	returned := ReturnedQuantities(p.Prior)
	requested := make(map[uuid.UUID]int64, len(lines))
	for _, line := range lines {
		saleItem := p.Sale.ItemFor(line.ProductID)
		if saleItem == nil {
			return nil, shared.NewDomainError(shared.CodeInvalidReturnLine,
				fmt.Sprintf("Product %s was not part of sale %s", line.ProductID, p.Sale.ID))
		}
		requested[line.ProductID] += line.Quantity
		available := saleItem.Quantity - returned[line.ProductID]
		if requested[line.ProductID] > available {
			return nil, shared.NewDomainError(shared.CodeOverReturn,
				fmt.Sprintf("Cannot return %d of product %s: only %d remaining", requested[line.ProductID], line.ProductID, available))
		}
	}

	total := decimal.Zero
	for _, line := range lines {
		refund := p.Sale.ItemFor(line.ProductID).PriceAtSale.Mul(decimal.NewFromInt(line.Quantity))
		total = total.Add(refund)
		ret.Items = append(ret.Items, SalesReturnItem{
			ID:           uuid.New(),
			ReturnID:     ret.ID,
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			Restock:      line.Restock,
			RefundAmount: refund,
		})
	}
	ret.Total = total

	ret.AddDomainEvent(NewSalesReturnCreatedEvent(ret, p.Sale))
	return ret, nil
}

// mergeReturnLines folds lines that repeat a product with the same restock
// flag into one.
func mergeReturnLines(lines []ReturnLine) ([]ReturnLine, error) {
	type lineKey struct {
		productID uuid.UUID
		restock   bool
	}
	merged := make([]ReturnLine, 0, len(lines))
	index := make(map[lineKey]int, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeInvalidReturnLine, "Product is required on every return line")
		}
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError(shared.CodeInvalidReturnLine, "Return quantity must be positive")
		}
		key := lineKey{productID: line.ProductID, restock: line.Restock}
		if pos, ok := index[key]; ok {
			merged[pos].Quantity += line.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// RestockedItems returns the lines that go back into inventory
func (r *SalesReturn) RestockedItems() []SalesReturnItem {
	out := make([]SalesReturnItem, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Restock {
			out = append(out, item)
		}
	}
	return out
}

// MarkCashOutRecorded notes that the refund left a till
func (r *SalesReturn) MarkCashOutRecorded() {
	r.CashOutRecorded = true
}

// OwesCash reports whether the refund has to leave a till: the sale took
// cash and there is money to give back. A zero refund needs no CASH_OUT.
func (r *SalesReturn) OwesCash(sale *Sale) bool {
	return sale.PaidWithCash() && r.Total.IsPositive()
}
