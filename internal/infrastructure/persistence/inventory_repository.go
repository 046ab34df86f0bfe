package persistence

import (
	"context"
	"time"

	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRecordRepository implements inventory.InventoryRecordRepository
type GormInventoryRecordRepository struct {
	db *gorm.DB
}

// NewGormInventoryRecordRepository creates a new GormInventoryRecordRepository
func NewGormInventoryRecordRepository(db *gorm.DB) *GormInventoryRecordRepository {
	return &GormInventoryRecordRepository{db: db}
}

// Increment adds delta in a single upsert statement so concurrent writers
// never lose an update, then reads the row back
func (r *GormInventoryRecordRepository) Increment(ctx context.Context, key inventory.Key, delta int64) (*inventory.InventoryRecord, error) {
	now := time.Now().UTC()
	row := models.InventoryRecordModel{
		ID:        uuid.New(),
		TenantID:  key.TenantID,
		StoreID:   key.StoreID,
		ProductID: key.ProductID,
		Quantity:  delta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "store_id"}, {Name: "product_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "quantity"}, Value: gorm.Expr("inventory_records.quantity + excluded.quantity")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return r.FindByKey(ctx, key)
}

// FindByKey finds the stock record of a product in a store
func (r *GormInventoryRecordRepository) FindByKey(ctx context.Context, key inventory.Key) (*inventory.InventoryRecord, error) {
	return r.findByKey(r.db.WithContext(ctx), key)
}

// FindByKeyForUpdate finds the stock record and locks its row
func (r *GormInventoryRecordRepository) FindByKeyForUpdate(ctx context.Context, key inventory.Key) (*inventory.InventoryRecord, error) {
	return r.findByKey(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), key)
}

func (r *GormInventoryRecordRepository) findByKey(query *gorm.DB, key inventory.Key) (*inventory.InventoryRecord, error) {
	var model models.InventoryRecordModel
	if err := query.
		Where("tenant_id = ? AND store_id = ? AND product_id = ?", key.TenantID, key.StoreID, key.ProductID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// GormInventoryEventRepository implements inventory.InventoryEventRepository
type GormInventoryEventRepository struct {
	db *gorm.DB
}

// NewGormInventoryEventRepository creates a new GormInventoryEventRepository
func NewGormInventoryEventRepository(db *gorm.DB) *GormInventoryEventRepository {
	return &GormInventoryEventRepository{db: db}
}

// Append writes one stock log row. Rows are never updated.
func (r *GormInventoryEventRepository) Append(ctx context.Context, event *inventory.InventoryEvent) error {
	return r.db.WithContext(ctx).Create(models.InventoryEventModelFromDomain(event)).Error
}

// FindByKey lists the stock log of a product in a store, newest first by
// default
func (r *GormInventoryEventRepository) FindByKey(ctx context.Context, key inventory.Key, filter shared.Filter) ([]inventory.InventoryEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryEventModel{}).
		Where("tenant_id = ? AND store_id = ? AND product_id = ?", key.TenantID, key.StoreID, key.ProductID)
	if t, ok := filter.Filters["type"].(string); ok && t != "" {
		query = query.Where("type = ?", t)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InventoryEventModel
	if err := paginate(query, filter, InventoryEventSortFields, "occurred_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	events := make([]inventory.InventoryEvent, len(rows))
	for i := range rows {
		events[i] = *rows[i].ToDomain()
	}
	return events, total, nil
}

// SumDeltas returns the total of all logged deltas for a key
func (r *GormInventoryEventRepository) SumDeltas(ctx context.Context, key inventory.Key) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.InventoryEventModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("tenant_id = ? AND store_id = ? AND product_id = ?", key.TenantID, key.StoreID, key.ProductID).
		Scan(&sum).Error
	return sum, err
}
