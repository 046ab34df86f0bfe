// Package inventory implements the inventory ledger use cases: adjustments,
// restocking with weighted-average costing, and the in-transaction movements
// used by checkout and returns.
package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/posledger/internal/application/ledger"
	"github.com/erp/posledger/internal/domain/catalog"
	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// LedgerService handles inventory ledger operations
type LedgerService struct {
	scope          ledger.TransactionScope
	products       catalog.ProductRepository
	records        inventory.InventoryRecordRepository
	events         inventory.InventoryEventRepository
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a LedgerService
func NewLedgerService(
	scope ledger.TransactionScope,
	products catalog.ProductRepository,
	records inventory.InventoryRecordRepository,
	events inventory.InventoryEventRepository,
) *LedgerService {
	return &LedgerService{
		scope:    scope,
		products: products,
		records:  records,
		events:   events,
	}
}

// SetEventPublisher sets the publisher used after commit
func (s *LedgerService) SetEventPublisher(p shared.EventPublisher) {
	s.eventPublisher = p
}

// AdjustStock applies a manual signed delta
func (s *LedgerService) AdjustStock(ctx context.Context, actor shared.Actor, in AdjustStockInput) (resp *RecordResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "adjust",
		attribute.String("store_id", in.StoreID.String()),
		attribute.Int64("delta", in.Delta))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapInventoryAdjust); err != nil {
		return nil, err
	}
	if in.Delta == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Adjustment quantity cannot be zero")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Adjustment reason is required")
	}
	key := inventory.NewKey(actor.TenantID, in.StoreID, in.ProductID)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, actor.TenantID, in.ProductID); err != nil {
		return nil, err
	}

	var collected ledger.Collector
	var record *inventory.InventoryRecord
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		applied, err := Apply(ctx, repos, Movement{
			Key:    key,
			Type:   inventory.AdjustmentTypeFor(in.Delta),
			Delta:  in.Delta,
			Reason: in.Reason,
			UserID: actor.UserID,
		})
		if err != nil {
			return err
		}
		record = applied.Record
		collected.Add(applied.Events...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collected.Publish(ctx, s.eventPublisher)

	logger.L(ctx).Info("stock adjusted",
		zap.String("product_id", in.ProductID.String()),
		zap.Int64("delta", in.Delta),
		zap.Int64("quantity", record.Quantity))
	r := ToRecordResponse(record)
	return &r, nil
}

// Restock receives stock and recomputes the product's weighted-average cost.
// Product and record rows stay locked until commit so concurrent receipts
// cannot compute the average from the same starting point.
func (s *LedgerService) Restock(ctx context.Context, actor shared.Actor, in RestockInput) (resp *RestockResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "restock",
		attribute.String("store_id", in.StoreID.String()),
		attribute.Int64("quantity", in.Quantity))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapInventoryReceive); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Received quantity must be positive")
	}
	if in.UnitCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit cost cannot be negative")
	}
	key := inventory.NewKey(actor.TenantID, in.StoreID, in.ProductID)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Stock received"
	}

	var collected ledger.Collector
	var record *inventory.InventoryRecord
	var product *catalog.Product
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		var err error
		product, err = repos.Products().FindByIDForUpdate(ctx, actor.TenantID, in.ProductID)
		if err != nil {
			return err
		}

		var currentQty int64
		current, err := repos.InventoryRecords().FindByKeyForUpdate(ctx, key)
		switch {
		case err == nil:
			currentQty = current.Quantity
		case errors.Is(err, shared.ErrNotFound):
		default:
			return err
		}

		oldCost := product.CostPrice
		newCost := inventory.WeightedAverageCost(currentQty, oldCost, in.Quantity, in.UnitCost)
		if err := product.ApplyReceivedCost(newCost, in.NewPrice); err != nil {
			return err
		}
		if err := repos.Products().UpdatePricing(ctx, product); err != nil {
			return err
		}

		unitCost := in.UnitCost
		applied, err := Apply(ctx, repos, Movement{
			Key:        key,
			Type:       inventory.EventTypeReceiveStock,
			Delta:      in.Quantity,
			Reason:     reason,
			UserID:     actor.UserID,
			SupplierID: in.SupplierID,
			UnitCost:   &unitCost,
		})
		if err != nil {
			return err
		}
		record = applied.Record
		collected.Add(inventory.NewStockReceivedEvent(applied.Event, oldCost, newCost))
		collected.Add(applied.Events...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collected.Publish(ctx, s.eventPublisher)

	logger.L(ctx).Info("stock received",
		zap.String("product_id", in.ProductID.String()),
		zap.Int64("quantity", in.Quantity),
		zap.String("unit_cost", in.UnitCost.String()),
		zap.String("cost_price", product.CostPrice.String()))
	return &RestockResponse{
		RecordResponse: ToRecordResponse(record),
		CostPrice:      product.CostPrice,
		Price:          product.Price,
	}, nil
}

// GetInventory returns the stock level. A key with no row reads as zero.
func (s *LedgerService) GetInventory(ctx context.Context, actor shared.Actor, storeID, productID uuid.UUID) (*RecordResponse, error) {
	if err := actor.Require(shared.CapInventoryView); err != nil {
		return nil, err
	}
	key := inventory.NewKey(actor.TenantID, storeID, productID)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	record, err := s.records.FindByKey(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		record = inventory.EmptyRecord(key)
	} else if err != nil {
		return nil, err
	}
	r := ToRecordResponse(record)
	return &r, nil
}

// ListEvents pages through the audit trail of one record, newest first
func (s *LedgerService) ListEvents(ctx context.Context, actor shared.Actor, storeID, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[EventResponse], error) {
	if err := actor.Require(shared.CapInventoryView); err != nil {
		return nil, err
	}
	key := inventory.NewKey(actor.TenantID, storeID, productID)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()
	events, total, err := s.events.FindByKey(ctx, key, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToEventResponses(events), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ReconcileRecord compares a record with the sum of its logged deltas.
// The two differ only if something wrote the record outside the ledger.
func (s *LedgerService) ReconcileRecord(ctx context.Context, actor shared.Actor, storeID, productID uuid.UUID) (quantity, logged int64, err error) {
	if err := actor.Require(shared.CapInventoryView); err != nil {
		return 0, 0, err
	}
	key := inventory.NewKey(actor.TenantID, storeID, productID)
	record, err := s.records.FindByKey(ctx, key)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, 0, err
	}
	if record != nil {
		quantity = record.Quantity
	}
	logged, err = s.events.SumDeltas(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	return quantity, logged, nil
}
