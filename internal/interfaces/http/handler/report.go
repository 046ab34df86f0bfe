package handler

import (
	"context"

	reportapp "github.com/erp/posledger/internal/application/report"
	"github.com/erp/posledger/internal/domain/report"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StatsService is the reporting use case the handler needs
type StatsService interface {
	ComputeStats(ctx context.Context, actor shared.Actor, q reportapp.StatsQuery) (*report.Stats, error)
}

// ReportHandler serves revenue statistics
type ReportHandler struct {
	BaseHandler
	stats StatsService
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(stats StatsService) *ReportHandler {
	return &ReportHandler{stats: stats}
}

// StatsQuery are the parameters of GET /reports/stats.
// Omitting store_id reports across every store.
type StatsQuery struct {
	StoreID string `form:"store_id" binding:"omitempty,uuid"`
	From    string `form:"from" binding:"required"`
	To      string `form:"to" binding:"required"`
}

// GetStats handles GET /reports/stats
func (h *ReportHandler) GetStats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q StatsQuery
	if !h.bindQuery(c, &q) {
		return
	}

	from, err := parseTime(q.From)
	if err != nil {
		h.BadRequest(c, "Invalid from time")
		return
	}
	to, err := parseTime(q.To)
	if err != nil {
		h.BadRequest(c, "Invalid to time")
		return
	}

	query := reportapp.StatsQuery{From: from, To: to}
	if q.StoreID != "" {
		storeID := uuid.MustParse(q.StoreID)
		query.StoreID = &storeID
	}

	stats, err := h.stats.ComputeStats(c.Request.Context(), actor, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
