// Package catalog exposes the minimal product reference the ledger needs
// to run standalone.
package catalog

import (
	"context"
	"time"

	"github.com/erp/posledger/internal/domain/catalog"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterProductInput is the input of RegisterProduct
type RegisterProductInput struct {
	SKU       string
	Name      string
	CostPrice decimal.Decimal
	Price     decimal.Decimal
}

// ProductResponse is a product in API responses
type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductService registers and reads product references
type ProductService struct {
	products catalog.ProductRepository
}

// NewProductService creates a ProductService
func NewProductService(products catalog.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// RegisterProduct stores a product reference with its opening cost
func (s *ProductService) RegisterProduct(ctx context.Context, actor shared.Actor, in RegisterProductInput) (*ProductResponse, error) {
	if err := actor.Require(shared.CapCatalogManage); err != nil {
		return nil, err
	}
	p, err := catalog.NewProduct(actor.TenantID, in.SKU, in.Name, in.CostPrice, in.Price)
	if err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

// GetProduct returns a product of the actor's tenant
func (s *ProductService) GetProduct(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ProductResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

func toProductResponse(p *catalog.Product) *ProductResponse {
	return &ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		CostPrice: p.CostPrice,
		Price:     p.Price,
		UpdatedAt: p.UpdatedAt,
	}
}
