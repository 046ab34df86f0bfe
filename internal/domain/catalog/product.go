// Package catalog holds the product reference the ledger reads and whose
// cost it maintains. Catalog workflows live outside this service.
package catalog

import (
	"strings"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the ledger's view of a catalog product
type Product struct {
	shared.TenantAggregateRoot
	SKU       string
	Name      string
	CostPrice decimal.Decimal // weighted-average unit cost
	Price     decimal.Decimal
}

// NewProduct creates a product reference
func NewProduct(tenantID uuid.UUID, sku, name string, costPrice, price decimal.Decimal) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "SKU cannot be empty")
	}
	if len(sku) > 64 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "SKU cannot exceed 64 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product name cannot be empty")
	}
	if costPrice.IsNegative() || price.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Prices cannot be negative")
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 strings.ToUpper(sku),
		Name:                strings.TrimSpace(name),
		CostPrice:           costPrice,
		Price:               price,
	}, nil
}

// ApplyReceivedCost replaces the cost with a recomputed weighted average and
// optionally sets a new selling price.
func (p *Product) ApplyReceivedCost(cost decimal.Decimal, newPrice *decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Cost cannot be negative")
	}
	if newPrice != nil && newPrice.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Price cannot be negative")
	}
	p.CostPrice = cost
	if newPrice != nil {
		p.Price = *newPrice
	}
	p.Touch()
	p.IncrementVersion()
	return nil
}
