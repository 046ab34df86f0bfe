// Package ledger defines the transactional boundary shared by every ledger
// use case.
package ledger

import (
	"context"

	"github.com/erp/posledger/internal/domain/catalog"
	"github.com/erp/posledger/internal/domain/inventory"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/till"
)

// TransactionScope runs ledger work atomically.
// If fn returns an error the transaction is rolled back, otherwise it is
// committed. Infrastructure failures surface as TRANSACTION_FAILED.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every ledger repository bound to one
// transaction
type Repositories interface {
	Products() catalog.ProductRepository
	InventoryRecords() inventory.InventoryRecordRepository
	InventoryEvents() inventory.InventoryEventRepository
	Sales() sales.SaleRepository
	Returns() sales.SalesReturnRepository
	Tills() till.TillRepository
	Sessions() till.TillSessionRepository
	CashTransactions() till.CashTransactionRepository
	RefundGaps() till.RefundCashGapRepository
}
