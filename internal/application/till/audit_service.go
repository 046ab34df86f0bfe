package till

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/posledger/internal/application/ledger"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AuditService finds and settles cash refunds that never reached a drawer
type AuditService struct {
	scope          ledger.TransactionScope
	tills          till.TillRepository
	gaps           till.RefundCashGapRepository
	policy         till.VariancePolicy
	eventPublisher shared.EventPublisher
}

// NewAuditService creates an AuditService
func NewAuditService(scope ledger.TransactionScope, tills till.TillRepository, gaps till.RefundCashGapRepository, policy till.VariancePolicy) *AuditService {
	return &AuditService{scope: scope, tills: tills, gaps: gaps, policy: policy}
}

// SetEventPublisher sets the publisher used after commit
func (s *AuditService) SetEventPublisher(p shared.EventPublisher) {
	s.eventPublisher = p
}

// ListRefundGaps returns refund gaps, newest first
func (s *AuditService) ListRefundGaps(ctx context.Context, actor shared.Actor, query till.GapQuery, filter shared.Filter) (*shared.Paginated[RefundGapResponse], error) {
	if err := actor.Require(shared.CapAuditRun); err != nil {
		return nil, err
	}
	filter = filter.Normalize()
	list, total, err := s.gaps.List(ctx, actor.TenantID, query, filter)
	if err != nil {
		return nil, err
	}
	items := make([]RefundGapResponse, len(list))
	for i := range list {
		items[i] = *toRefundGapResponse(&list[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ResolveRefundGap pays a pending gap out of a session of the same store.
// A CASH_OUT is appended to the session; if the session was already closed
// its expected cash and variance are recomputed in the same transaction.
func (s *AuditService) ResolveRefundGap(ctx context.Context, actor shared.Actor, gapID, sessionID uuid.UUID) (resp *RefundGapResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "audit", "resolve_refund_gap",
		attribute.String("refund_gap_id", gapID.String()),
		attribute.String("session_id", sessionID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapTillSupervise); err != nil {
		return nil, err
	}

	var gap *till.RefundCashGap
	var reconciled bool
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		gap, err = repos.RefundGaps().FindByIDForUpdate(ctx, actor.TenantID, gapID)
		if err != nil {
			return err
		}
		if gap.Status == till.GapResolved {
			return shared.NewDomainError(shared.CodeInvalidState, "Refund gap is already resolved")
		}
		session, err := repos.Sessions().FindByIDForUpdate(ctx, actor.TenantID, sessionID)
		if err != nil {
			return err
		}
		if session.StoreID != gap.StoreID {
			return shared.NewDomainError(shared.CodeInvalidInput, "Session belongs to another store")
		}

		saleID := gap.SaleID
		cashOut, err := till.NewCashTransaction(till.CashTransactionParams{
			Session:       session,
			Type:          till.CashOut,
			Amount:        gap.Amount,
			Reason:        "Refund",
			Description:   fmt.Sprintf("Late refund for sale %s (return %s)", gap.SaleID, gap.ReturnID),
			ReferenceType: till.ReferenceSaleRefund,
			ReferenceID:   &saleID,
			CreatedBy:     actor.UserID,
		})
		if err != nil {
			return err
		}
		if err := repos.CashTransactions().Append(ctx, cashOut); err != nil {
			return err
		}
		if err := repos.Returns().MarkCashOutRecorded(ctx, actor.TenantID, gap.ReturnID); err != nil {
			return err
		}
		if err := gap.Resolve(session.ID, actor.UserID); err != nil {
			return err
		}
		if err := repos.RefundGaps().Update(ctx, gap); err != nil {
			return err
		}
		if !session.IsOpen() {
			if _, err := reconcile(ctx, repos, session, s.policy); err != nil {
				return err
			}
			reconciled = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("refund gap resolved",
		zap.String("refund_gap_id", gap.ID.String()),
		zap.String("session_id", sessionID.String()),
		zap.String("amount", gap.Amount.StringFixed(2)),
		zap.Bool("session_reconciled", reconciled))
	return toRefundGapResponse(gap), nil
}

// ScanRefundGaps records a gap for every cash refund since the given time
// that has neither a CASH_OUT nor an existing gap. Running it twice records
// nothing new the second time.
func (s *AuditService) ScanRefundGaps(ctx context.Context, actor shared.Actor, since time.Time) (result *ScanResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "audit", "scan_refund_gaps",
		attribute.String("tenant_id", actor.TenantID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapAuditRun); err != nil {
		return nil, err
	}

	result = &ScanResult{Since: since}
	var collected ledger.Collector
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		candidates, err := repos.Returns().FindWithoutCashOut(ctx, actor.TenantID, since)
		if err != nil {
			return err
		}
		result.Examined = len(candidates)
		if len(candidates) == 0 {
			return nil
		}
		parents, err := repos.Sales().FindByIDs(ctx, actor.TenantID, parentIDs(candidates))
		if err != nil {
			return err
		}
		for i := range candidates {
			ret := &candidates[i]
			sale, ok := parents[ret.SaleID]
			if !ok || !ret.OwesCash(sale) {
				continue
			}
			exists, err := repos.RefundGaps().ExistsForReturn(ctx, actor.TenantID, ret.ID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			gap, err := till.NewRefundCashGap(ret, till.GapDetectedByAudit)
			if err != nil {
				return err
			}
			if err := repos.RefundGaps().Create(ctx, gap); err != nil {
				return err
			}
			collected.Add(till.NewRefundCashGapRecordedEvent(gap))
			result.Recorded++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	collected.Publish(ctx, s.eventPublisher)

	l := logger.L(ctx).With(
		zap.Time("since", since),
		zap.Int("examined", result.Examined),
		zap.Int("recorded", result.Recorded))
	if result.Recorded > 0 {
		l.Warn("refund gap audit found unrecorded cash refunds")
	} else {
		l.Debug("refund gap audit clean")
	}
	return result, nil
}

// ScanAllTenants runs ScanRefundGaps for every tenant that owns a till.
// A failure for one tenant is logged and does not stop the others.
func (s *AuditService) ScanAllTenants(ctx context.Context, since time.Time) (int, error) {
	tenants, err := s.tills.ListTenantIDs(ctx)
	if err != nil {
		return 0, err
	}
	recorded := 0
	for _, tenantID := range tenants {
		tctx := logger.WithScope(ctx, logger.Scope{TenantID: tenantID.String()})
		result, err := s.ScanRefundGaps(tctx, shared.SystemActor(tenantID), since)
		if err != nil {
			logger.L(tctx).Error("refund gap audit failed", zap.Error(err))
			continue
		}
		recorded += result.Recorded
	}
	return recorded, nil
}

func parentIDs(returns []sales.SalesReturn) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(returns))
	ids := make([]uuid.UUID, 0, len(returns))
	for _, r := range returns {
		if _, ok := seen[r.SaleID]; ok {
			continue
		}
		seen[r.SaleID] = struct{}{}
		ids = append(ids, r.SaleID)
	}
	return ids
}
