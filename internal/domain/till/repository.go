package till

import (
	"context"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
)

// TillRepository stores tills
type TillRepository interface {
	Create(ctx context.Context, t *Till) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Till, error)
	// FindByIDForUpdate locks the till row; session opening on one till is
	// serialized through this lock
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Till, error)
	// ListTenantIDs returns every tenant that owns a till
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TillSessionRepository stores till sessions
type TillSessionRepository interface {
	Create(ctx context.Context, s *TillSession) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*TillSession, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*TillSession, error)
	// FindOpenByTill returns the open session on a till or shared.ErrNotFound
	FindOpenByTill(ctx context.Context, tenantID, tillID uuid.UUID) (*TillSession, error)
	// FindOpenByUserStore returns the user's open session in a store or
	// shared.ErrNotFound
	FindOpenByUserStore(ctx context.Context, tenantID, userID, storeID uuid.UUID) (*TillSession, error)
	// FindOpenByUserStoreForUpdate is FindOpenByUserStore that also locks the
	// row. A session closed while waiting on the lock is not returned.
	FindOpenByUserStoreForUpdate(ctx context.Context, tenantID, userID, storeID uuid.UUID) (*TillSession, error)
	// Update writes the closing/reconciliation fields
	Update(ctx context.Context, s *TillSession) error
}

// CashTransactionRepository is the append-only cash movement log
type CashTransactionRepository interface {
	Append(ctx context.Context, tx *CashTransaction) error
	FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]CashTransaction, error)
}

// RefundCashGapRepository stores refund cash gaps
type RefundCashGapRepository interface {
	Create(ctx context.Context, g *RefundCashGap) error
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*RefundCashGap, error)
	ExistsForReturn(ctx context.Context, tenantID, returnID uuid.UUID) (bool, error)
	List(ctx context.Context, tenantID uuid.UUID, query GapQuery, filter shared.Filter) ([]RefundCashGap, int64, error)
	Update(ctx context.Context, g *RefundCashGap) error
}

// GapQuery narrows the refund gap audit report
type GapQuery struct {
	Status  GapStatus
	StoreID *uuid.UUID
}
