// Package inventory models per-store stock levels and their immutable
// audit trail.
package inventory

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord is the quantity on hand for one product in one store.
// Quantity is signed: stock may go negative and that is reported, not
// rejected. Records are never modified in application memory and written
// back; every change goes through an atomic increment in the store.
type InventoryRecord struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key identifies an inventory record
type Key struct {
	TenantID  uuid.UUID
	StoreID   uuid.UUID
	ProductID uuid.UUID
}

// NewKey builds a record key
func NewKey(tenantID, storeID, productID uuid.UUID) Key {
	return Key{TenantID: tenantID, StoreID: storeID, ProductID: productID}
}

// Validate checks the key has all components
func (k Key) Validate() error {
	if k.TenantID == uuid.Nil || k.StoreID == uuid.Nil || k.ProductID == uuid.Nil {
		return errInvalidKey
	}
	return nil
}

// Key returns the record key
func (r *InventoryRecord) Key() Key {
	return NewKey(r.TenantID, r.StoreID, r.ProductID)
}

// IsNegative reports a data-quality problem: more units left than were known
func (r *InventoryRecord) IsNegative() bool {
	return r.Quantity < 0
}

// EmptyRecord returns a zero-quantity view of a key that has no row yet
func EmptyRecord(key Key) *InventoryRecord {
	return &InventoryRecord{
		TenantID:  key.TenantID,
		StoreID:   key.StoreID,
		ProductID: key.ProductID,
	}
}
