package models

import (
	"github.com/erp/posledger/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model of a product reference
type ProductModel struct {
	TenantAggregateModel
	SKU       string          `gorm:"type:varchar(64);not null;index"`
	Name      string          `gorm:"type:varchar(200);not null"`
	CostPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SKU:                 m.SKU,
		Name:                m.Name,
		CostPrice:           m.CostPrice,
		Price:               m.Price,
	}
}

// ProductModelFromDomain creates a model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		SKU:       p.SKU,
		Name:      p.Name,
		CostPrice: p.CostPrice,
		Price:     p.Price,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}
