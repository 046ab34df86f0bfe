package handler

import (
	"context"
	"net/http"
	"time"

	tillapp "github.com/erp/posledger/internal/application/till"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditService is the refund gap audit use case the handler needs
type AuditService interface {
	ListRefundGaps(ctx context.Context, actor shared.Actor, query till.GapQuery, filter shared.Filter) (*shared.Paginated[tillapp.RefundGapResponse], error)
	ResolveRefundGap(ctx context.Context, actor shared.Actor, gapID, sessionID uuid.UUID) (*tillapp.RefundGapResponse, error)
	ScanRefundGaps(ctx context.Context, actor shared.Actor, since time.Time) (*tillapp.ScanResult, error)
}

// AuditHandler exposes refund gaps: cash refunds that never left a drawer
type AuditHandler struct {
	BaseHandler
	audit AuditService
}

// NewAuditHandler creates an AuditHandler
func NewAuditHandler(audit AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListRefundGapsQuery are the filters of GET /audit/refund-gaps
type ListRefundGapsQuery struct {
	dto.ListRequest
	Status  string `form:"status" binding:"omitempty,oneof=PENDING RESOLVED"`
	StoreID string `form:"store_id" binding:"omitempty,uuid"`
}

// ResolveRefundGapRequest is the body of POST /audit/refund-gaps/:id/resolve
type ResolveRefundGapRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
}

// ScanRefundGapsRequest is the body of POST /audit/refund-gaps/scan.
// Since defaults to 24 hours ago.
type ScanRefundGapsRequest struct {
	Since *time.Time `json:"since"`
}

// ListRefundGaps handles GET /audit/refund-gaps
func (h *AuditHandler) ListRefundGaps(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ListRefundGapsQuery
	if !h.bindQuery(c, &q) {
		return
	}

	query := till.GapQuery{Status: till.GapStatus(q.Status)}
	if q.StoreID != "" {
		storeID := uuid.MustParse(q.StoreID)
		query.StoreID = &storeID
	}

	page, err := h.audit.ListRefundGaps(c.Request.Context(), actor, query, q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(page))
}

// ResolveRefundGap handles POST /audit/refund-gaps/:id/resolve
func (h *AuditHandler) ResolveRefundGap(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ResolveRefundGapRequest
	if !h.bindJSON(c, &req) {
		return
	}

	gap, err := h.audit.ResolveRefundGap(c.Request.Context(), actor, id, req.SessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gap)
}

// ScanRefundGaps handles POST /audit/refund-gaps/scan
func (h *AuditHandler) ScanRefundGaps(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ScanRefundGapsRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if req.Since != nil {
		since = *req.Since
	}

	result, err := h.audit.ScanRefundGaps(c.Request.Context(), actor, since)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
