package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository reads and writes product references
type ProductRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate loads the product holding a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	Save(ctx context.Context, product *Product) error
	// UpdatePricing persists cost and price only
	UpdatePricing(ctx context.Context, product *Product) error
}
