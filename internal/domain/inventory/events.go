package inventory

import (
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateType = "InventoryRecord"

	EventTypeStockAdjusted = "StockAdjusted"
	EventTypeStockReceived = "StockReceived"
	EventTypeStockReturned = "StockReturned"
	EventTypeStockNegative = "StockNegative"
)

// StockAdjustedEvent is published after an adjustment or sale decrement
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	StoreID   uuid.UUID `json:"store_id"`
	ProductID uuid.UUID `json:"product_id"`
	Movement  EventType `json:"movement_type"`
	Delta     int64     `json:"delta"`
	Balance   int64     `json:"balance"`
}

// NewStockAdjustedEvent builds a StockAdjustedEvent from a logged movement
func NewStockAdjustedEvent(e *InventoryEvent) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateType, e.ProductID, e.TenantID),
		StoreID:         e.StoreID,
		ProductID:       e.ProductID,
		Movement:        e.Type,
		Delta:           e.Quantity,
		Balance:         e.BalanceAfter,
	}
}

// StockReceivedEvent is published after a restock recomputed the product cost
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	StoreID    uuid.UUID       `json:"store_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	OldCost    decimal.Decimal `json:"old_cost"`
	NewCost    decimal.Decimal `json:"new_cost"`
	Balance    int64           `json:"balance"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
}

// NewStockReceivedEvent builds a StockReceivedEvent
func NewStockReceivedEvent(e *InventoryEvent, oldCost, newCost decimal.Decimal) *StockReceivedEvent {
	unitCost := decimal.Zero
	if e.UnitCost != nil {
		unitCost = *e.UnitCost
	}
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateType, e.ProductID, e.TenantID),
		StoreID:         e.StoreID,
		ProductID:       e.ProductID,
		Quantity:        e.Quantity,
		UnitCost:        unitCost,
		OldCost:         oldCost,
		NewCost:         newCost,
		Balance:         e.BalanceAfter,
		SupplierID:      e.SupplierID,
	}
}

// StockReturnedEvent is published when a refund put units back on the shelf
type StockReturnedEvent struct {
	shared.BaseDomainEvent
	StoreID   uuid.UUID `json:"store_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	Balance   int64     `json:"balance"`
	ReturnID  uuid.UUID `json:"return_id"`
}

// NewStockReturnedEvent builds a StockReturnedEvent
func NewStockReturnedEvent(e *InventoryEvent) *StockReturnedEvent {
	ev := &StockReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReturned, AggregateType, e.ProductID, e.TenantID),
		StoreID:         e.StoreID,
		ProductID:       e.ProductID,
		Quantity:        e.Quantity,
		Balance:         e.BalanceAfter,
	}
	if e.ReferenceID != nil {
		ev.ReturnID = *e.ReferenceID
	}
	return ev
}

// StockNegativeEvent flags a record that dropped below zero
type StockNegativeEvent struct {
	shared.BaseDomainEvent
	StoreID   uuid.UUID `json:"store_id"`
	ProductID uuid.UUID `json:"product_id"`
	Balance   int64     `json:"balance"`
}

// NewStockNegativeEvent builds a StockNegativeEvent
func NewStockNegativeEvent(r *InventoryRecord) *StockNegativeEvent {
	return &StockNegativeEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockNegative, AggregateType, r.ProductID, r.TenantID),
		StoreID:         r.StoreID,
		ProductID:       r.ProductID,
		Balance:         r.Quantity,
	}
}
