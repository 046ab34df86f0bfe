package persistence

import (
	"context"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTillRepository implements till.TillRepository using GORM
type GormTillRepository struct {
	db *gorm.DB
}

// NewGormTillRepository creates a new GormTillRepository
func NewGormTillRepository(db *gorm.DB) *GormTillRepository {
	return &GormTillRepository{db: db}
}

// Create inserts a till
func (r *GormTillRepository) Create(ctx context.Context, t *till.Till) error {
	return r.db.WithContext(ctx).Create(models.TillModelFromDomain(t)).Error
}

// FindByID finds a till by ID within a tenant
func (r *GormTillRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*till.Till, error) {
	var model models.TillModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a till and locks its row
func (r *GormTillRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*till.Till, error) {
	var model models.TillModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ListTenantIDs returns every tenant owning at least one till
func (r *GormTillRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.TillModel{}).
		Distinct("tenant_id").
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

// GormTillSessionRepository implements till.TillSessionRepository
type GormTillSessionRepository struct {
	db *gorm.DB
}

// NewGormTillSessionRepository creates a new GormTillSessionRepository
func NewGormTillSessionRepository(db *gorm.DB) *GormTillSessionRepository {
	return &GormTillSessionRepository{db: db}
}

// Create inserts a session. The partial unique index on open sessions turns
// a lost race into SESSION_CONFLICT.
func (r *GormTillSessionRepository) Create(ctx context.Context, s *till.TillSession) error {
	err := r.db.WithContext(ctx).Create(models.TillSessionModelFromDomain(s)).Error
	if isUniqueViolation(err) {
		return shared.WrapDomainError(shared.CodeSessionConflict, "An open session already exists on this till", err)
	}
	return err
}

// FindByID finds a session by ID within a tenant
func (r *GormTillSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*till.TillSession, error) {
	return r.first(r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIDForUpdate finds a session and locks its row
func (r *GormTillSessionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*till.TillSession, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindOpenByTill returns the open session on a till
func (r *GormTillSessionRepository) FindOpenByTill(ctx context.Context, tenantID, tillID uuid.UUID) (*till.TillSession, error) {
	return r.first(r.db.WithContext(ctx).
		Where("tenant_id = ? AND till_id = ? AND status = ?", tenantID, tillID, string(till.SessionOpen)))
}

// FindOpenByUserStore returns the user's open session in a store
func (r *GormTillSessionRepository) FindOpenByUserStore(ctx context.Context, tenantID, userID, storeID uuid.UUID) (*till.TillSession, error) {
	return r.first(r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND store_id = ? AND status = ?",
			tenantID, userID, storeID, string(till.SessionOpen)).
		Order("opened_at DESC"))
}

// FindOpenByUserStoreForUpdate returns the user's open session in a store
// and locks it, so a concurrent close waits for the caller to commit
func (r *GormTillSessionRepository) FindOpenByUserStoreForUpdate(ctx context.Context, tenantID, userID, storeID uuid.UUID) (*till.TillSession, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND user_id = ? AND store_id = ? AND status = ?",
			tenantID, userID, storeID, string(till.SessionOpen)).
		Order("opened_at DESC"))
}

func (r *GormTillSessionRepository) first(query *gorm.DB) (*till.TillSession, error) {
	var model models.TillSessionModel
	if err := query.First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Update writes closing and reconciliation fields
func (r *GormTillSessionRepository) Update(ctx context.Context, s *till.TillSession) error {
	result := r.db.WithContext(ctx).
		Model(&models.TillSessionModel{}).
		Where("tenant_id = ? AND id = ?", s.TenantID, s.ID).
		Updates(map[string]any{
			"status":         string(s.Status),
			"closing_cash":   s.ClosingCash,
			"expected_cash":  s.ExpectedCash,
			"variance":       s.Variance,
			"variance_level": string(s.VarianceLevel),
			"closed_at":      s.ClosedAt,
			"closed_by":      s.ClosedBy,
			"reconciled_at":  s.ReconciledAt,
			"version":        s.Version,
			"updated_at":     s.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormCashTransactionRepository implements till.CashTransactionRepository
type GormCashTransactionRepository struct {
	db *gorm.DB
}

// NewGormCashTransactionRepository creates a new GormCashTransactionRepository
func NewGormCashTransactionRepository(db *gorm.DB) *GormCashTransactionRepository {
	return &GormCashTransactionRepository{db: db}
}

// Append writes one cash movement. Rows are never updated.
func (r *GormCashTransactionRepository) Append(ctx context.Context, tx *till.CashTransaction) error {
	return translateError(r.db.WithContext(ctx).Create(models.CashTransactionModelFromDomain(tx)).Error)
}

// FindBySession returns a session's cash movements in the order they were
// recorded
func (r *GormCashTransactionRepository) FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]till.CashTransaction, error) {
	var rows []models.CashTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND till_session_id = ?", tenantID, sessionID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]till.CashTransaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// GormRefundCashGapRepository implements till.RefundCashGapRepository
type GormRefundCashGapRepository struct {
	db *gorm.DB
}

// NewGormRefundCashGapRepository creates a new GormRefundCashGapRepository
func NewGormRefundCashGapRepository(db *gorm.DB) *GormRefundCashGapRepository {
	return &GormRefundCashGapRepository{db: db}
}

// Create inserts a gap. A return has at most one gap.
func (r *GormRefundCashGapRepository) Create(ctx context.Context, g *till.RefundCashGap) error {
	err := r.db.WithContext(ctx).Create(models.RefundCashGapModelFromDomain(g)).Error
	if isUniqueViolation(err) {
		return shared.WrapDomainError(shared.CodeInvalidState, "A refund gap is already recorded for this return", err)
	}
	return err
}

// FindByIDForUpdate finds a gap and locks its row
func (r *GormRefundCashGapRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*till.RefundCashGap, error) {
	var model models.RefundCashGapModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsForReturn reports whether a gap was already recorded for a return
func (r *GormRefundCashGapRepository) ExistsForReturn(ctx context.Context, tenantID, returnID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RefundCashGapModel{}).
		Where("tenant_id = ? AND return_id = ?", tenantID, returnID).
		Count(&count).Error
	return count > 0, err
}

// List returns a page of gaps matching the query
func (r *GormRefundCashGapRepository) List(ctx context.Context, tenantID uuid.UUID, q till.GapQuery, filter shared.Filter) ([]till.RefundCashGap, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RefundCashGapModel{}).Where("tenant_id = ?", tenantID)
	if q.Status != "" {
		query = query.Where("status = ?", string(q.Status))
	}
	if q.StoreID != nil {
		query = query.Where("store_id = ?", *q.StoreID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.RefundCashGapModel
	if err := paginate(query, filter, RefundGapSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]till.RefundCashGap, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Update writes the resolution fields
func (r *GormRefundCashGapRepository) Update(ctx context.Context, g *till.RefundCashGap) error {
	result := r.db.WithContext(ctx).
		Model(&models.RefundCashGapModel{}).
		Where("tenant_id = ? AND id = ?", g.TenantID, g.ID).
		Updates(map[string]any{
			"status":              string(g.Status),
			"resolved_session_id": g.ResolvedSessionID,
			"resolved_by":         g.ResolvedBy,
			"resolved_at":         g.ResolvedAt,
			"updated_at":          g.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
