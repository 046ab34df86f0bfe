package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) withLines(query *gorm.DB) *gorm.DB {
	return query.Preload("Items").Preload("Payments")
}

// Create inserts the sale together with its items and payments
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	return translateError(r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error)
}

// FindByID finds a sale by ID within a tenant
func (r *GormSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.withLines(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a sale and locks its row. Returns against one sale
// serialize on this lock.
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.withLines(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several sales keyed by ID
func (r *GormSaleRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*sales.Sale, error) {
	result := make(map[uuid.UUID]*sales.Sale, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.SaleModel
	if err := r.withLines(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// UpdateStatus writes the status fields if the stored version still equals
// expectedVersion
func (r *GormSaleRepository) UpdateStatus(ctx context.Context, sale *sales.Sale, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", sale.TenantID, sale.ID, expectedVersion).
		Updates(map[string]any{
			"status":            string(sale.Status),
			"status_reason":     sale.StatusReason,
			"status_changed_at": sale.StatusChangedAt,
			"version":           sale.Version,
			"updated_at":        sale.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Sale %s was modified by another transaction", sale.ID))
	}
	return nil
}

// FindInPeriod returns sales created in [From, To), optionally for one store
func (r *GormSaleRepository) FindInPeriod(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, period sales.Period) ([]sales.Sale, error) {
	query := r.withLines(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, period.From, period.To)
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	var rows []models.SaleModel
	if err := query.Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSales(rows), nil
}

// FindBySession returns every sale rung up in a till session
func (r *GormSaleRepository) FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]sales.Sale, error) {
	var rows []models.SaleModel
	if err := r.withLines(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND till_session_id = ?", tenantID, sessionID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSales(rows), nil
}

// List returns a page of sales. Supported filters: store_id, user_id,
// till_session_id, status, from, to.
func (r *GormSaleRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("tenant_id = ?", tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "store_id":
			query = query.Where("store_id = ?", value)
		case "user_id":
			query = query.Where("user_id = ?", value)
		case "till_session_id":
			query = query.Where("till_session_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "from":
			query = query.Where("created_at >= ?", value)
		case "to":
			query = query.Where("created_at < ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SaleModel
	if err := r.withLines(paginate(query, filter, SaleSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toSales(rows), total, nil
}

func toSales(rows []models.SaleModel) []sales.Sale {
	out := make([]sales.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormSalesReturnRepository implements sales.SalesReturnRepository
type GormSalesReturnRepository struct {
	db *gorm.DB
}

// NewGormSalesReturnRepository creates a new GormSalesReturnRepository
func NewGormSalesReturnRepository(db *gorm.DB) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{db: db}
}

// Create inserts the return with its items
func (r *GormSalesReturnRepository) Create(ctx context.Context, ret *sales.SalesReturn) error {
	return translateError(r.db.WithContext(ctx).Create(models.SalesReturnModelFromDomain(ret)).Error)
}

// FindByID finds a return by ID within a tenant
func (r *GormSalesReturnRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesReturn, error) {
	var model models.SalesReturnModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySale returns all prior returns against a sale
func (r *GormSalesReturnRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]sales.SalesReturn, error) {
	var rows []models.SalesReturnModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReturns(rows), nil
}

// FindInPeriod returns returns created in [From, To)
func (r *GormSalesReturnRepository) FindInPeriod(ctx context.Context, tenantID uuid.UUID, period sales.Period) ([]sales.SalesReturn, error) {
	var rows []models.SalesReturnModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, period.From, period.To).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReturns(rows), nil
}

// FindWithoutCashOut returns returns created since the given time with no
// CASH_OUT recorded against them
func (r *GormSalesReturnRepository) FindWithoutCashOut(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]sales.SalesReturn, error) {
	var rows []models.SalesReturnModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND cash_out_recorded = ? AND created_at >= ?", tenantID, false, since).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReturns(rows), nil
}

// MarkCashOutRecorded flags the return as paid out from a till
func (r *GormSalesReturnRepository) MarkCashOutRecorded(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.SalesReturnModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"cash_out_recorded": true,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toReturns(rows []models.SalesReturnModel) []sales.SalesReturn {
	out := make([]sales.SalesReturn, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
