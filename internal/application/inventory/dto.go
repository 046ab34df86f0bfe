package inventory

import (
	"time"

	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdjustStockInput is the input of AdjustStock
type AdjustStockInput struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Delta     int64
	Reason    string
}

// RestockInput is the input of Restock
type RestockInput struct {
	StoreID    uuid.UUID
	ProductID  uuid.UUID
	Quantity   int64
	UnitCost   decimal.Decimal
	NewPrice   *decimal.Decimal
	SupplierID *uuid.UUID
	Reason     string
}

// RecordResponse is an inventory record in API responses
type RecordResponse struct {
	TenantID  uuid.UUID  `json:"tenant_id"`
	StoreID   uuid.UUID  `json:"store_id"`
	ProductID uuid.UUID  `json:"product_id"`
	Quantity  int64      `json:"quantity"`
	Negative  bool       `json:"negative"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// RestockResponse adds the recomputed product cost to the record
type RestockResponse struct {
	RecordResponse
	CostPrice decimal.Decimal `json:"cost_price"`
	Price     decimal.Decimal `json:"price"`
}

// EventResponse is an inventory event in API responses
type EventResponse struct {
	ID            uuid.UUID        `json:"id"`
	Type          string           `json:"type"`
	Quantity      int64            `json:"quantity"`
	BalanceAfter  int64            `json:"balance_after"`
	Reason        string           `json:"reason"`
	UserID        uuid.UUID        `json:"user_id"`
	SupplierID    *uuid.UUID       `json:"supplier_id,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType string           `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID       `json:"reference_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// ToRecordResponse converts a record
func ToRecordResponse(r *inventory.InventoryRecord) RecordResponse {
	resp := RecordResponse{
		TenantID:  r.TenantID,
		StoreID:   r.StoreID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Negative:  r.IsNegative(),
	}
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

// ToEventResponses converts an event page
func ToEventResponses(events []inventory.InventoryEvent) []EventResponse {
	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = EventResponse{
			ID:            e.ID,
			Type:          e.Type.String(),
			Quantity:      e.Quantity,
			BalanceAfter:  e.BalanceAfter,
			Reason:        e.Reason,
			UserID:        e.UserID,
			SupplierID:    e.SupplierID,
			UnitCost:      e.UnitCost,
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			OccurredAt:    e.OccurredAt,
		}
	}
	return out
}
