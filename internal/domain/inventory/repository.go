package inventory

import (
	"context"

	"github.com/erp/posledger/internal/domain/shared"
)

// InventoryRecordRepository stores stock levels
type InventoryRecordRepository interface {
	// Increment atomically adds delta to the record, creating it when
	// missing, and returns the row as it is after the update
	Increment(ctx context.Context, key Key, delta int64) (*InventoryRecord, error)

	// FindByKey returns the record or shared.ErrNotFound
	FindByKey(ctx context.Context, key Key) (*InventoryRecord, error)

	// FindByKeyForUpdate is FindByKey with a row lock
	FindByKeyForUpdate(ctx context.Context, key Key) (*InventoryRecord, error)
}

// InventoryEventRepository is the append-only stock audit trail
type InventoryEventRepository interface {
	Append(ctx context.Context, event *InventoryEvent) error
	FindByKey(ctx context.Context, key Key, filter shared.Filter) ([]InventoryEvent, int64, error)
	// SumDeltas returns the total of all logged deltas for a key
	SumDeltas(ctx context.Context, key Key) (int64, error)
}
