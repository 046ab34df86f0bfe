package handler

import (
	"context"

	catalogapp "github.com/erp/posledger/internal/application/catalog"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService is the catalog use case the handler needs
type ProductService interface {
	RegisterProduct(ctx context.Context, actor shared.Actor, in catalogapp.RegisterProductInput) (*catalogapp.ProductResponse, error)
	GetProduct(ctx context.Context, actor shared.Actor, id uuid.UUID) (*catalogapp.ProductResponse, error)
}

// CatalogHandler registers and reads product references
type CatalogHandler struct {
	BaseHandler
	products ProductService
}

// NewCatalogHandler creates a CatalogHandler
func NewCatalogHandler(products ProductService) *CatalogHandler {
	return &CatalogHandler{products: products}
}

// RegisterProductRequest is the body of POST /catalog/products
type RegisterProductRequest struct {
	SKU       string          `json:"sku" binding:"required,max=64"`
	Name      string          `json:"name" binding:"required,max=200"`
	CostPrice decimal.Decimal `json:"cost_price" binding:"decimal_gte0"`
	Price     decimal.Decimal `json:"price" binding:"decimal_gte0"`
}

// RegisterProduct handles POST /catalog/products
func (h *CatalogHandler) RegisterProduct(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req RegisterProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.products.RegisterProduct(c.Request.Context(), actor, catalogapp.RegisterProductInput{
		SKU:       req.SKU,
		Name:      req.Name,
		CostPrice: req.CostPrice,
		Price:     req.Price,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetProduct handles GET /catalog/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
