package handler

import (
	"context"
	"net/http"

	salesapp "github.com/erp/posledger/internal/application/sales"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleService is the checkout use case the handler needs
type SaleService interface {
	CreateSale(ctx context.Context, actor shared.Actor, in salesapp.CreateSaleInput) (*salesapp.SaleResponse, error)
	GetSale(ctx context.Context, actor shared.Actor, id uuid.UUID) (*salesapp.SaleResponse, error)
	ListSales(ctx context.Context, actor shared.Actor, filter shared.Filter) (*shared.Paginated[salesapp.SaleResponse], error)
	TransitionSaleStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, target, reason string) (*salesapp.SaleResponse, error)
}

// ReturnService is the refund use case the handler needs
type ReturnService interface {
	CreateReturn(ctx context.Context, actor shared.Actor, in salesapp.CreateReturnInput) (*salesapp.ReturnResponse, error)
	ListReturnsForSale(ctx context.Context, actor shared.Actor, saleID uuid.UUID) ([]salesapp.ReturnResponse, error)
	GetReturn(ctx context.Context, actor shared.Actor, id uuid.UUID) (*salesapp.ReturnResponse, error)
}

// SaleHandler handles checkout, sale status changes and returns
type SaleHandler struct {
	BaseHandler
	sales   SaleService
	returns ReturnService
}

// NewSaleHandler creates a SaleHandler
func NewSaleHandler(saleService SaleService, returnService ReturnService) *SaleHandler {
	return &SaleHandler{sales: saleService, returns: returnService}
}

// CreateSaleRequest is the body of POST /sales
type CreateSaleRequest struct {
	StoreID        *uuid.UUID          `json:"store_id"`
	CustomerID     *uuid.UUID          `json:"customer_id"`
	Items          []SaleItemRequest   `json:"items" binding:"required,min=1,dive"`
	Payments       []SalePaymentRequest `json:"payments" binding:"required,min=1,dive"`
	DiscountAmount decimal.Decimal     `json:"discount_amount" binding:"decimal_gte0"`
	TaxAmount      decimal.Decimal     `json:"tax_amount" binding:"decimal_gte0"`
	Status         string              `json:"status" binding:"omitempty,oneof=COMPLETED PENDING"`
}

// SaleItemRequest is one checkout line
type SaleItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"gt=0"`
	Price     decimal.Decimal `json:"price" binding:"decimal_gte0"`
}

// SalePaymentRequest is one tender
type SalePaymentRequest struct {
	Method   string           `json:"method" binding:"required"`
	Amount   decimal.Decimal  `json:"amount" binding:"decimal_gt0"`
	Tendered *decimal.Decimal `json:"tendered"`
}

// TransitionStatusRequest is the body of POST /sales/:id/status
type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}

// CreateReturnRequest is the body of POST /sales/:id/returns
type CreateReturnRequest struct {
	StoreID *uuid.UUID          `json:"store_id"`
	Lines   []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
	Reason  string              `json:"reason" binding:"max=500"`
}

// ReturnLineRequest is one refunded line. Restock defaults to true.
type ReturnLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"gt=0"`
	Restock   *bool     `json:"restock"`
}

// ListSalesQuery are the filters of GET /sales
type ListSalesQuery struct {
	dto.ListRequest
	StoreID       string `form:"store_id" binding:"omitempty,uuid"`
	UserID        string `form:"user_id" binding:"omitempty,uuid"`
	TillSessionID string `form:"till_session_id" binding:"omitempty,uuid"`
	Status        string `form:"status"`
	From          string `form:"from"`
	To            string `form:"to"`
}

// CreateSale handles POST /sales
func (h *SaleHandler) CreateSale(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	in := salesapp.CreateSaleInput{
		StoreID:        storeOrActor(req.StoreID, actor),
		CustomerID:     req.CustomerID,
		Items:          make([]salesapp.SaleItemInput, len(req.Items)),
		Payments:       make([]salesapp.PaymentInput, len(req.Payments)),
		DiscountAmount: req.DiscountAmount,
		TaxAmount:      req.TaxAmount,
		Status:         req.Status,
	}
	for i, item := range req.Items {
		in.Items[i] = salesapp.SaleItemInput{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}
	for i, p := range req.Payments {
		in.Payments[i] = salesapp.PaymentInput{Method: p.Method, Amount: p.Amount, Tendered: p.Tendered}
	}

	sale, err := h.sales.CreateSale(c.Request.Context(), actor, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetSale handles GET /sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.sales.GetSale(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// ListSales handles GET /sales
func (h *SaleHandler) ListSales(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ListSalesQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := q.ToFilter()
	for key, value := range map[string]string{
		"store_id":        q.StoreID,
		"user_id":         q.UserID,
		"till_session_id": q.TillSessionID,
	} {
		if value != "" {
			filter.Filters[key] = uuid.MustParse(value)
		}
	}
	if q.Status != "" {
		status, err := sales.ParseSaleStatus(q.Status)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		filter.Filters["status"] = status
	}
	for key, value := range map[string]string{"from": q.From, "to": q.To} {
		if value == "" {
			continue
		}
		t, err := parseTime(value)
		if err != nil {
			h.BadRequest(c, "Invalid "+key+" time")
			return
		}
		filter.Filters[key] = t
	}

	page, err := h.sales.ListSales(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(page))
}

// TransitionStatus handles POST /sales/:id/status
func (h *SaleHandler) TransitionStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req TransitionStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.sales.TransitionSaleStatus(c.Request.Context(), actor, id, req.Status, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// CreateReturn handles POST /sales/:id/returns
func (h *SaleHandler) CreateReturn(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CreateReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	in := salesapp.CreateReturnInput{
		SaleID: saleID,
		Lines:  make([]sales.ReturnLine, len(req.Lines)),
		Reason: req.Reason,
	}
	if req.StoreID != nil {
		in.StoreID = *req.StoreID
	}
	for i, line := range req.Lines {
		restock := true
		if line.Restock != nil {
			restock = *line.Restock
		}
		in.Lines[i] = sales.ReturnLine{ProductID: line.ProductID, Quantity: line.Quantity, Restock: restock}
	}

	ret, err := h.returns.CreateReturn(c.Request.Context(), actor, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}

// ListReturns handles GET /sales/:id/returns
func (h *SaleHandler) ListReturns(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.returns.ListReturnsForSale(c.Request.Context(), actor, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// GetReturn handles GET /returns/:id
func (h *SaleHandler) GetReturn(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	ret, err := h.returns.GetReturn(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}
