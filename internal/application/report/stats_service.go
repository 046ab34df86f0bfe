// Package report serves the revenue statistics read model.
package report

import (
	"context"
	"time"

	"github.com/erp/posledger/internal/domain/report"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StatsQuery selects the period and optional store of a report
type StatsQuery struct {
	StoreID *uuid.UUID
	From    time.Time
	To      time.Time
}

// StatsService loads sales and returns for a period and aggregates them
type StatsService struct {
	sales   sales.SaleRepository
	returns sales.SalesReturnRepository
}

// NewStatsService creates a StatsService
func NewStatsService(saleRepo sales.SaleRepository, returnRepo sales.SalesReturnRepository) *StatsService {
	return &StatsService{sales: saleRepo, returns: returnRepo}
}

// ComputeStats returns revenue, cost, profit and the payment breakdown for
// [From, To). Reporting across every store requires report:all_stores.
func (s *StatsService) ComputeStats(ctx context.Context, actor shared.Actor, q StatsQuery) (stats *report.Stats, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "compute_stats",
		attribute.String("from", q.From.Format(time.RFC3339)),
		attribute.String("to", q.To.Format(time.RFC3339)))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapReportView); err != nil {
		return nil, err
	}
	if q.StoreID == nil {
		if err := actor.Require(shared.CapReportAllStores); err != nil {
			return nil, err
		}
	}
	if q.From.IsZero() || q.To.IsZero() || !q.From.Before(q.To) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "from must be before to")
	}

	period := sales.Period{From: q.From.UTC(), To: q.To.UTC()}
	saleList, err := s.sales.FindInPeriod(ctx, actor.TenantID, q.StoreID, period)
	if err != nil {
		return nil, err
	}
	returnList, err := s.returns.FindInPeriod(ctx, actor.TenantID, period)
	if err != nil {
		return nil, err
	}

	parents := make(map[uuid.UUID]*sales.Sale, len(saleList))
	for i := range saleList {
		parents[saleList[i].ID] = &saleList[i]
	}
	var missing []uuid.UUID
	for _, r := range returnList {
		if _, ok := parents[r.SaleID]; !ok {
			missing = append(missing, r.SaleID)
		}
	}
	if len(missing) > 0 {
		// parents created before the period, or in other stores
		found, err := s.sales.FindByIDs(ctx, actor.TenantID, missing)
		if err != nil {
			return nil, err
		}
		for id, sale := range found {
			parents[id] = sale
		}
	}

	result := report.ComputeStats(report.Input{
		Period:  period,
		StoreID: q.StoreID,
		Sales:   saleList,
		Returns: returnList,
		Parents: parents,
	})

	logger.L(ctx).Debug("stats computed",
		zap.Int("sales", result.Counts.Sales),
		zap.Int("excluded_sales", result.Counts.ExcludedSales),
		zap.Int("returns", result.Counts.Returns),
		zap.Int("ignored_returns", result.Counts.IgnoredReturns),
		zap.String("revenue", result.Revenue.StringFixed(2)))
	return &result, nil
}
