package models

import (
	"time"

	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecordModel holds the stock level of one product in one store
type InventoryRecordModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_key,priority:1"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_key,priority:2"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_key,priority:3"`
	Quantity  int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryRecordModel) TableName() string {
	return "inventory_records"
}

// ToDomain converts the model to a domain InventoryRecord
func (m *InventoryRecordModel) ToDomain() *inventory.InventoryRecord {
	return &inventory.InventoryRecord{
		ID:        m.ID,
		TenantID:  m.TenantID,
		StoreID:   m.StoreID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// InventoryEventModel is one row of the append-only stock log
type InventoryEventModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_inventory_event_key,priority:1"`
	StoreID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_inventory_event_key,priority:2"`
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_inventory_event_key,priority:3"`
	Type          string           `gorm:"type:varchar(30);not null"`
	Quantity      int64            `gorm:"not null"`
	BalanceAfter  int64            `gorm:"not null"`
	Reason        string           `gorm:"type:varchar(500)"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null"`
	SupplierID    *uuid.UUID       `gorm:"type:uuid"`
	UnitCost      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ReferenceType string           `gorm:"type:varchar(30)"`
	ReferenceID   *uuid.UUID       `gorm:"type:uuid;index"`
	OccurredAt    time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InventoryEventModel) TableName() string {
	return "inventory_events"
}

// ToDomain converts the model to a domain InventoryEvent
func (m *InventoryEventModel) ToDomain() *inventory.InventoryEvent {
	return &inventory.InventoryEvent{
		ID:            m.ID,
		TenantID:      m.TenantID,
		StoreID:       m.StoreID,
		ProductID:     m.ProductID,
		Type:          inventory.EventType(m.Type),
		Quantity:      m.Quantity,
		BalanceAfter:  m.BalanceAfter,
		Reason:        m.Reason,
		UserID:        m.UserID,
		SupplierID:    m.SupplierID,
		UnitCost:      m.UnitCost,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		OccurredAt:    m.OccurredAt,
	}
}

// InventoryEventModelFromDomain creates a model from a domain InventoryEvent
func InventoryEventModelFromDomain(e *inventory.InventoryEvent) *InventoryEventModel {
	return &InventoryEventModel{
		ID:            e.ID,
		TenantID:      e.TenantID,
		StoreID:       e.StoreID,
		ProductID:     e.ProductID,
		Type:          string(e.Type),
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
