package sales

import (
	"context"
	"time"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Period is a half-open time range [From, To)
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// SaleRepository persists sales with their items and payments
type SaleRepository interface {
	// Create inserts a new sale, its items and payments
	Create(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)
	// FindByIDForUpdate loads the sale and locks its row for the
	// surrounding transaction
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Sale, error)
	// UpdateStatus writes status fields guarded by the aggregate version
	UpdateStatus(ctx context.Context, sale *Sale, expectedVersion int) error
	// FindInPeriod returns sales created in the period, optionally for one store
	FindInPeriod(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, period Period) ([]Sale, error)
	FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]Sale, error)
	List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Sale, int64, error)
}

// SalesReturnRepository persists returns with their items
type SalesReturnRepository interface {
	Create(ctx context.Context, ret *SalesReturn) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SalesReturn, error)
	FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]SalesReturn, error)
	FindInPeriod(ctx context.Context, tenantID uuid.UUID, period Period) ([]SalesReturn, error)
	// FindWithoutCashOut returns returns created since the given time whose
	// refund was never matched by a CASH_OUT
	FindWithoutCashOut(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]SalesReturn, error)
	MarkCashOutRecorded(ctx context.Context, tenantID, id uuid.UUID) error
}
