package inventory

import (
	"strings"
	"time"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType is the kind of stock movement recorded in the inventory log
type EventType string

const (
	EventTypeAdjustmentAdd    EventType = "ADJUSTMENT_ADD"
	EventTypeAdjustmentRemove EventType = "ADJUSTMENT_REMOVE"
	EventTypeReceiveStock     EventType = "RECEIVE_STOCK"
	EventTypeReturn           EventType = "RETURN"
)

// String returns the string representation of EventType
func (t EventType) String() string {
	return string(t)
}

// IsValid returns true if the event type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeAdjustmentAdd, EventTypeAdjustmentRemove, EventTypeReceiveStock, EventTypeReturn:
		return true
	}
	return false
}

// IsIncrease returns true if this event type adds stock
func (t EventType) IsIncrease() bool {
	switch t {
	case EventTypeAdjustmentAdd, EventTypeReceiveStock, EventTypeReturn:
		return true
	}
	return false
}

// IsDecrease returns true if this event type removes stock
func (t EventType) IsDecrease() bool {
	return t == EventTypeAdjustmentRemove
}

// AdjustmentTypeFor picks the adjustment event type from the delta's sign
func AdjustmentTypeFor(delta int64) EventType {
	if delta < 0 {
		return EventTypeAdjustmentRemove
	}
	return EventTypeAdjustmentAdd
}

// Reference types linking an inventory event to its cause
const (
	ReferenceSale        = "SALE"
	ReferenceSalesReturn = "SALES_RETURN"
)

// InventoryEvent is an immutable entry in the stock audit trail.
// Quantity is the signed delta applied to the record.
type InventoryEvent struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	StoreID       uuid.UUID
	ProductID     uuid.UUID
	Type          EventType
	Quantity      int64
	BalanceAfter  int64
	Reason        string
	UserID        uuid.UUID
	SupplierID    *uuid.UUID
	UnitCost      *decimal.Decimal
	ReferenceType string
	ReferenceID   *uuid.UUID
	OccurredAt    time.Time
}

// EventParams holds the data for a new inventory event
type EventParams struct {
	Key           Key
	Type          EventType
	Delta         int64
	BalanceAfter  int64
	Reason        string
	UserID        uuid.UUID
	SupplierID    *uuid.UUID
	UnitCost      *decimal.Decimal
	ReferenceType string
	ReferenceID   *uuid.UUID
}

var errInvalidKey = shared.NewDomainError(shared.CodeInvalidInput, "Tenant, store and product are required")

// NewInventoryEvent validates and creates an inventory event
func NewInventoryEvent(p EventParams) (*InventoryEvent, error) {
	if err := p.Key.Validate(); err != nil {
		return nil, err
	}
	if !p.Type.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid inventory event type")
	}
	if p.Delta == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity delta cannot be zero")
	}
	if p.Type.IsIncrease() && p.Delta < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Increase events require a positive delta")
	}
	if p.Type.IsDecrease() && p.Delta > 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Decrease events require a negative delta")
	}
	if p.UserID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "User is required")
	}

	return &InventoryEvent{
		ID:            uuid.New(),
		TenantID:      p.Key.TenantID,
		StoreID:       p.Key.StoreID,
		ProductID:     p.Key.ProductID,
		Type:          p.Type,
		Quantity:      p.Delta,
		BalanceAfter:  p.BalanceAfter,
		Reason:        strings.TrimSpace(p.Reason),
		UserID:        p.UserID,
		SupplierID:    p.SupplierID,
		UnitCost:      p.UnitCost,
		ReferenceType: p.ReferenceType,
		ReferenceID:   p.ReferenceID,
		OccurredAt:    time.Now().UTC(),
	}, nil
}

// BalanceBefore returns the quantity before this event was applied
func (e *InventoryEvent) BalanceBefore() int64 {
	return e.BalanceAfter - e.Quantity
}
