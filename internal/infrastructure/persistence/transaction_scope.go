package persistence

import (
	"context"

	"github.com/erp/posledger/internal/application/ledger"
	"github.com/erp/posledger/internal/domain/catalog"
	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"gorm.io/gorm"
)

// GormTransactionScope implements ledger.TransactionScope using GORM
// transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside one database transaction. Domain errors from fn
// pass through unchanged after rollback; anything else is reported as
// TRANSACTION_FAILED.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
	if err == nil || shared.IsDomainError(err) {
		return err
	}
	return shared.WrapDomainError(shared.CodeTransactionFailed, "Ledger transaction failed", err)
}

// gormRepositories binds every ledger repository to one *gorm.DB.
type gormRepositories struct {
	db *gorm.DB
}

// NewRepositories returns the ledger repositories over db, which may be a
// transaction or the root connection for reads
func NewRepositories(db *gorm.DB) ledger.Repositories {
	return &gormRepositories{db: db}
}

func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *gormRepositories) InventoryRecords() inventory.InventoryRecordRepository {
	return NewGormInventoryRecordRepository(r.db)
}

func (r *gormRepositories) InventoryEvents() inventory.InventoryEventRepository {
	return NewGormInventoryEventRepository(r.db)
}

func (r *gormRepositories) Sales() sales.SaleRepository {
	return NewGormSaleRepository(r.db)
}

func (r *gormRepositories) Returns() sales.SalesReturnRepository {
	return NewGormSalesReturnRepository(r.db)
}

func (r *gormRepositories) Tills() till.TillRepository {
	return NewGormTillRepository(r.db)
}

func (r *gormRepositories) Sessions() till.TillSessionRepository {
	return NewGormTillSessionRepository(r.db)
}

func (r *gormRepositories) CashTransactions() till.CashTransactionRepository {
	return NewGormCashTransactionRepository(r.db)
}

func (r *gormRepositories) RefundGaps() till.RefundCashGapRepository {
	return NewGormRefundCashGapRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ ledger.TransactionScope = (*GormTransactionScope)(nil)

var (
	_ catalog.ProductRepository           = (*GormProductRepository)(nil)
	_ inventory.InventoryRecordRepository = (*GormInventoryRecordRepository)(nil)
	_ inventory.InventoryEventRepository  = (*GormInventoryEventRepository)(nil)
	_ sales.SaleRepository                = (*GormSaleRepository)(nil)
	_ sales.SalesReturnRepository         = (*GormSalesReturnRepository)(nil)
	_ till.TillRepository                 = (*GormTillRepository)(nil)
	_ till.TillSessionRepository          = (*GormTillSessionRepository)(nil)
	_ till.CashTransactionRepository      = (*GormCashTransactionRepository)(nil)
	_ till.RefundCashGapRepository        = (*GormRefundCashGapRepository)(nil)
)
