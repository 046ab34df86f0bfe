package handler

import (
	"context"

	tillapp "github.com/erp/posledger/internal/application/till"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionService is the till session use case the handler needs
type SessionService interface {
	CreateTill(ctx context.Context, actor shared.Actor, storeID uuid.UUID, name string) (*tillapp.TillResponse, error)
	GetTill(ctx context.Context, actor shared.Actor, id uuid.UUID) (*tillapp.TillResponse, error)
	OpenSession(ctx context.Context, actor shared.Actor, tillID uuid.UUID, openingFloat decimal.Decimal) (*tillapp.SessionResponse, error)
	GetSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*tillapp.SessionResponse, error)
	GetSessionSummary(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*tillapp.SummaryResponse, error)
	RecordCashMovement(ctx context.Context, actor shared.Actor, sessionID uuid.UUID, in tillapp.CashMovementInput) (*tillapp.CashTransactionResponse, error)
	ListCashMovements(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) ([]tillapp.CashTransactionResponse, error)
	CloseSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID, countedCash decimal.Decimal) (*tillapp.SummaryResponse, error)
	RecomputeSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*tillapp.SessionResponse, error)
}

// TillHandler handles tills, sessions and drawer movements
type TillHandler struct {
	BaseHandler
	sessions SessionService
}

// NewTillHandler creates a TillHandler
func NewTillHandler(sessions SessionService) *TillHandler {
	return &TillHandler{sessions: sessions}
}

// CreateTillRequest is the body of POST /tills
type CreateTillRequest struct {
	StoreID *uuid.UUID `json:"store_id"`
	Name    string     `json:"name" binding:"required,max=100"`
}

// OpenSessionRequest is the body of POST /tills/:id/sessions
type OpenSessionRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float" binding:"decimal_gte0"`
}

// CashMovementRequest is the body of POST /till-sessions/:id/cash-movements
type CashMovementRequest struct {
	Type        string          `json:"type" binding:"required,oneof=CASH_IN CASH_OUT"`
	Amount      decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Reason      string          `json:"reason" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=500"`
}

// CloseSessionRequest is the body of POST /till-sessions/:id/close
type CloseSessionRequest struct {
	CountedCash decimal.Decimal `json:"counted_cash" binding:"decimal_gte0"`
}

// CreateTill handles POST /tills
func (h *TillHandler) CreateTill(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateTillRequest
	if !h.bindJSON(c, &req) {
		return
	}

	t, err := h.sessions.CreateTill(c.Request.Context(), actor, storeOrActor(req.StoreID, actor), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// GetTill handles GET /tills/:id
func (h *TillHandler) GetTill(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	t, err := h.sessions.GetTill(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// OpenSession handles POST /tills/:id/sessions
func (h *TillHandler) OpenSession(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	tillID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req OpenSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.sessions.OpenSession(c.Request.Context(), actor, tillID, req.OpeningFloat)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// GetSession handles GET /till-sessions/:id
func (h *TillHandler) GetSession(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetSummary handles GET /till-sessions/:id/summary
func (h *TillHandler) GetSummary(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	summary, err := h.sessions.GetSessionSummary(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RecordCashMovement handles POST /till-sessions/:id/cash-movements
func (h *TillHandler) RecordCashMovement(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CashMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.sessions.RecordCashMovement(c.Request.Context(), actor, id, tillapp.CashMovementInput{
		Type:        req.Type,
		Amount:      req.Amount,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// ListCashMovements handles GET /till-sessions/:id/cash-movements
func (h *TillHandler) ListCashMovements(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.sessions.ListCashMovements(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// CloseSession handles POST /till-sessions/:id/close
func (h *TillHandler) CloseSession(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CloseSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	summary, err := h.sessions.CloseSession(c.Request.Context(), actor, id, req.CountedCash)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RecomputeSession handles POST /till-sessions/:id/recompute
func (h *TillHandler) RecomputeSession(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	session, err := h.sessions.RecomputeSession(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}
