package handler

import (
	"context"
	"net/http"

	invapp "github.com/erp/posledger/internal/application/inventory"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryService is the inventory ledger use case the handler needs
type InventoryService interface {
	AdjustStock(ctx context.Context, actor shared.Actor, in invapp.AdjustStockInput) (*invapp.RecordResponse, error)
	Restock(ctx context.Context, actor shared.Actor, in invapp.RestockInput) (*invapp.RestockResponse, error)
	GetInventory(ctx context.Context, actor shared.Actor, storeID, productID uuid.UUID) (*invapp.RecordResponse, error)
	ListEvents(ctx context.Context, actor shared.Actor, storeID, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[invapp.EventResponse], error)
}

// InventoryHandler exposes stock adjustments, receipts and the stock log
type InventoryHandler struct {
	BaseHandler
	ledger InventoryService
}

// NewInventoryHandler creates an InventoryHandler
func NewInventoryHandler(ledger InventoryService) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// AdjustStockRequest is the body of POST /inventory/adjustments.
// Delta is signed; zero is rejected.
type AdjustStockRequest struct {
	StoreID   *uuid.UUID `json:"store_id"`
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	Delta     int64      `json:"delta" binding:"ne=0"`
	Reason    string     `json:"reason" binding:"required,max=500"`
}

// ReceiveStockRequest is the body of POST /inventory/receipts
type ReceiveStockRequest struct {
	StoreID    *uuid.UUID       `json:"store_id"`
	ProductID  uuid.UUID        `json:"product_id" binding:"required"`
	Quantity   int64            `json:"quantity" binding:"gt=0"`
	UnitCost   decimal.Decimal  `json:"unit_cost" binding:"decimal_gte0"`
	NewPrice   *decimal.Decimal `json:"new_price"`
	SupplierID *uuid.UUID       `json:"supplier_id"`
	Reason     string           `json:"reason" binding:"max=500"`
}

func storeOrActor(storeID *uuid.UUID, actor shared.Actor) uuid.UUID {
	if storeID != nil {
		return *storeID
	}
	return actor.StoreID
}

// AdjustStock handles POST /inventory/adjustments
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.ledger.AdjustStock(c.Request.Context(), actor, invapp.AdjustStockInput{
		StoreID:   storeOrActor(req.StoreID, actor),
		ProductID: req.ProductID,
		Delta:     req.Delta,
		Reason:    req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// ReceiveStock handles POST /inventory/receipts
func (h *InventoryHandler) ReceiveStock(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ReceiveStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.ledger.Restock(c.Request.Context(), actor, invapp.RestockInput{
		StoreID:    storeOrActor(req.StoreID, actor),
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		UnitCost:   req.UnitCost,
		NewPrice:   req.NewPrice,
		SupplierID: req.SupplierID,
		Reason:     req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetInventory handles GET /inventory/stores/:store_id/products/:product_id
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	storeID, ok := h.pathUUID(c, "store_id")
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}

	record, err := h.ledger.GetInventory(c.Request.Context(), actor, storeID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// ListEvents handles GET /inventory/stores/:store_id/products/:product_id/events
func (h *InventoryHandler) ListEvents(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	storeID, ok := h.pathUUID(c, "store_id")
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	var list dto.ListRequest
	if !h.bindQuery(c, &list) {
		return
	}

	page, err := h.ledger.ListEvents(c.Request.Context(), actor, storeID, productID, list.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(page))
}
