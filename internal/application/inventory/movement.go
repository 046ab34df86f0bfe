package inventory

import (
	"context"

	"github.com/erp/posledger/internal/application/ledger"
	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Movement is one stock change applied inside a running ledger transaction
type Movement struct {
	Key           inventory.Key
	Type          inventory.EventType
	Delta         int64
	Reason        string
	UserID        uuid.UUID
	SupplierID    *uuid.UUID
	UnitCost      *decimal.Decimal
	ReferenceType string
	ReferenceID   *uuid.UUID
}

// Applied is the outcome of a movement
type Applied struct {
	Record *inventory.InventoryRecord
	Event  *inventory.InventoryEvent
	// Events holds the domain events to publish after commit
	Events []shared.DomainEvent
}

// Apply upsert-increments the record and appends the matching inventory
// event. It must run inside TransactionScope.Execute. Stock may go negative;
// that is logged and flagged with a StockNegative event.
func Apply(ctx context.Context, repos ledger.Repositories, m Movement) (*Applied, error) {
	event, err := inventory.NewInventoryEvent(inventory.EventParams{
		Key:           m.Key,
		Type:          m.Type,
		Delta:         m.Delta,
		Reason:        m.Reason,
		UserID:        m.UserID,
		SupplierID:    m.SupplierID,
		UnitCost:      m.UnitCost,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
	})
	if err != nil {
		return nil, err
	}

	record, err := repos.InventoryRecords().Increment(ctx, m.Key, m.Delta)
	if err != nil {
		return nil, err
	}
	event.BalanceAfter = record.Quantity
	if err := repos.InventoryEvents().Append(ctx, event); err != nil {
		return nil, err
	}

	applied := &Applied{Record: record, Event: event}
	switch m.Type {
	case inventory.EventTypeReturn:
		applied.Events = append(applied.Events, inventory.NewStockReturnedEvent(event))
	case inventory.EventTypeReceiveStock:
		// the caller adds StockReceived with the cost change
	default:
		applied.Events = append(applied.Events, inventory.NewStockAdjustedEvent(event))
	}

	if record.IsNegative() {
		logger.L(ctx).Warn("inventory below zero",
			zap.String("store_id", m.Key.StoreID.String()),
			zap.String("product_id", m.Key.ProductID.String()),
			zap.Int64("quantity", record.Quantity),
			zap.String("movement", m.Type.String()))
		applied.Events = append(applied.Events, inventory.NewStockNegativeEvent(record))
	}
	return applied, nil
}

// ReturnRestockInput describes units put back on the shelf by a return
type ReturnRestockInput struct {
	TenantID  uuid.UUID
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	Reason    string
	UserID    uuid.UUID
	ReturnID  uuid.UUID
}

// ReturnRestock increments stock and logs a RETURN event. It is only valid
// inside the transaction that creates the return.
func ReturnRestock(ctx context.Context, repos ledger.Repositories, in ReturnRestockInput) (*Applied, error) {
	if in.Quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Restock quantity must be positive")
	}
	reason := in.Reason
	if reason == "" {
		reason = "Customer return"
	}
	returnID := in.ReturnID
	return Apply(ctx, repos, Movement{
		Key:           inventory.NewKey(in.TenantID, in.StoreID, in.ProductID),
		Type:          inventory.EventTypeReturn,
		Delta:         in.Quantity,
		Reason:        reason,
		UserID:        in.UserID,
		ReferenceType: inventory.ReferenceSalesReturn,
		ReferenceID:   &returnID,
	})
}

// SaleDecrementInput describes units leaving the shelf at checkout
type SaleDecrementInput struct {
	TenantID  uuid.UUID
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	UserID    uuid.UUID
	SaleID    uuid.UUID
}

// SaleDecrement removes sold units as an ADJUSTMENT_REMOVE that references
// the sale. No floor check.
func SaleDecrement(ctx context.Context, repos ledger.Repositories, in SaleDecrementInput) (*Applied, error) {
	if in.Quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Sold quantity must be positive")
	}
	saleID := in.SaleID
	return Apply(ctx, repos, Movement{
		Key:           inventory.NewKey(in.TenantID, in.StoreID, in.ProductID),
		Type:          inventory.EventTypeAdjustmentRemove,
		Delta:         -in.Quantity,
		Reason:        "Sale",
		UserID:        in.UserID,
		ReferenceType: inventory.ReferenceSale,
		ReferenceID:   &saleID,
	})
}
