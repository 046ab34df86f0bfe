// Package till runs the cash drawer use cases: opening and closing sessions,
// manual cash movements and the refund gap audit.
package till

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/posledger/internal/application/ledger"
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/domain/till"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SessionService handles till session use cases
type SessionService struct {
	scope          ledger.TransactionScope
	tills          till.TillRepository
	sessions       till.TillSessionRepository
	cash           till.CashTransactionRepository
	sales          sales.SaleRepository
	policy         till.VariancePolicy
	eventPublisher shared.EventPublisher
}

// NewSessionService creates a SessionService
func NewSessionService(
	scope ledger.TransactionScope,
	tills till.TillRepository,
	sessions till.TillSessionRepository,
	cash till.CashTransactionRepository,
	saleRepo sales.SaleRepository,
	policy till.VariancePolicy,
) *SessionService {
	return &SessionService{
		scope:    scope,
		tills:    tills,
		sessions: sessions,
		cash:     cash,
		sales:    saleRepo,
		policy:   policy,
	}
}

// SetEventPublisher sets the publisher used after commit
func (s *SessionService) SetEventPublisher(p shared.EventPublisher) {
	s.eventPublisher = p
}

// CreateTill registers a cash drawer. The store defaults to the actor's.
func (s *SessionService) CreateTill(ctx context.Context, actor shared.Actor, storeID uuid.UUID, name string) (*TillResponse, error) {
	if err := actor.Require(shared.CapTillSupervise); err != nil {
		return nil, err
	}
	if storeID == uuid.Nil {
		storeID = actor.StoreID
	}
	t, err := till.NewTill(actor.TenantID, storeID, name)
	if err != nil {
		return nil, err
	}
	if err := s.tills.Create(ctx, t); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("till created",
		zap.String("till_id", t.ID.String()),
		zap.String("store_id", t.StoreID.String()))
	return toTillResponse(t), nil
}

// GetTill returns a till
func (s *SessionService) GetTill(ctx context.Context, actor shared.Actor, id uuid.UUID) (*TillResponse, error) {
	if err := actor.Require(shared.CapTillOperate); err != nil {
		return nil, err
	}
	t, err := s.tills.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	return toTillResponse(t), nil
}

// OpenSession starts the actor's session on a till.
// A till holds at most one OPEN session and a user holds at most one OPEN
// session per store; both are checked under the till row lock.
func (s *SessionService) OpenSession(ctx context.Context, actor shared.Actor, tillID uuid.UUID, openingFloat decimal.Decimal) (resp *SessionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "till", "open_session",
		attribute.String("till_id", tillID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapTillOperate); err != nil {
		return nil, err
	}

	var collected ledger.Collector
	var session *till.TillSession
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		t, err := repos.Tills().FindByIDForUpdate(ctx, actor.TenantID, tillID)
		if err != nil {
			return err
		}
		if err := ensureNoOpenSession(repos.Sessions().FindOpenByTill(ctx, actor.TenantID, t.ID)); err != nil {
			return err
		}
		if err := ensureNoOpenSession(repos.Sessions().FindOpenByUserStore(ctx, actor.TenantID, actor.UserID, t.StoreID)); err != nil {
			return err
		}
		session, err = till.OpenSession(t, actor.UserID, openingFloat)
		if err != nil {
			return err
		}
		if err := repos.Sessions().Create(ctx, session); err != nil {
			return err
		}
		collected.Collect(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collected.Publish(ctx, s.eventPublisher)

	logger.L(ctx).Info("till session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("till_id", session.TillID.String()),
		zap.String("opening_float", session.OpeningFloat.StringFixed(2)))
	return toSessionResponse(session), nil
}

func ensureNoOpenSession(existing *till.TillSession, err error) error {
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	return shared.NewDomainError(shared.CodeSessionConflict,
		"An open session already exists: "+existing.ID.String())
}

// RecordCashMovement appends a manual CASH_IN or CASH_OUT to an open session.
// Only the session owner or a supervisor may move cash.
func (s *SessionService) RecordCashMovement(ctx context.Context, actor shared.Actor, sessionID uuid.UUID, in CashMovementInput) (*CashTransactionResponse, error) {
	if err := actor.Require(shared.CapTillOperate); err != nil {
		return nil, err
	}
	txType := till.CashTransactionType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !txType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cash movement type must be CASH_IN or CASH_OUT")
	}

	var movement *till.CashTransaction
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		session, err := repos.Sessions().FindByIDForUpdate(ctx, actor.TenantID, sessionID)
		if err != nil {
			return err
		}
		if !session.CanBeClosedBy(actor) {
			return shared.NewDomainError(shared.CodeForbidden, "Only the session owner or a supervisor can move cash")
		}
		if err := session.EnsureOpen(); err != nil {
			return err
		}
		movement, err = till.NewCashTransaction(till.CashTransactionParams{
			Session:       session,
			Type:          txType,
			Amount:        in.Amount,
			Reason:        in.Reason,
			Description:   in.Description,
			ReferenceType: till.ReferenceManual,
			CreatedBy:     actor.UserID,
		})
		if err != nil {
			return err
		}
		return repos.CashTransactions().Append(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("cash movement recorded",
		zap.String("session_id", sessionID.String()),
		zap.String("type", string(movement.Type)),
		zap.String("amount", movement.Amount.StringFixed(2)))
	return toCashTransactionResponse(movement), nil
}

// CloseSession counts the drawer and closes the session.
// Expected cash and variance are computed from the session's linked sales and
// cash movements inside the same transaction.
func (s *SessionService) CloseSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID, countedCash decimal.Decimal) (resp *SummaryResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "till", "close_session",
		attribute.String("session_id", sessionID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapTillOperate); err != nil {
		return nil, err
	}

	var collected ledger.Collector
	var session *till.TillSession
	var summary till.SessionSummary
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		session, err = repos.Sessions().FindByIDForUpdate(ctx, actor.TenantID, sessionID)
		if err != nil {
			return err
		}
		if !session.CanBeClosedBy(actor) {
			return shared.NewDomainError(shared.CodeForbidden, "Only the session owner or a supervisor can close it")
		}
		if err := session.EnsureOpen(); err != nil {
			return err
		}
		summary, err = summarize(ctx, repos.Sales(), repos.CashTransactions(), session)
		if err != nil {
			return err
		}
		if err := session.Close(summary, countedCash, actor.UserID, s.policy); err != nil {
			return err
		}
		if err := repos.Sessions().Update(ctx, session); err != nil {
			return err
		}
		collected.Collect(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collected.Publish(ctx, s.eventPublisher)

	l := logger.L(ctx).With(
		zap.String("session_id", session.ID.String()),
		zap.String("expected_cash", session.ExpectedCash.StringFixed(2)),
		zap.String("closing_cash", session.ClosingCash.StringFixed(2)),
		zap.String("variance", session.Variance.StringFixed(2)),
		zap.String("variance_level", string(session.VarianceLevel)))
	if session.VarianceLevel == till.VarianceCritical {
		l.Warn("till session closed with critical variance")
	} else {
		l.Info("till session closed")
	}

	summary.Status = session.Status
	summary.ClosingCash = session.ClosingCash
	summary.Variance = session.Variance
	return toSummaryResponse(summary), nil
}

// GetSessionSummary computes the current cash position of a session
// without changing anything
func (s *SessionService) GetSessionSummary(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*SummaryResponse, error) {
	if err := actor.Require(shared.CapTillOperate); err != nil {
		return nil, err
	}
	session, err := s.sessions.FindByID(ctx, actor.TenantID, sessionID)
	if err != nil {
		return nil, err
	}
	summary, err := summarize(ctx, s.sales, s.cash, session)
	if err != nil {
		return nil, err
	}
	return toSummaryResponse(summary), nil
}

// GetSession returns a session
func (s *SessionService) GetSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*SessionResponse, error) {
	if err := actor.Require(shared.CapTillOperate); err != nil {
		return nil, err
	}
	session, err := s.sessions.FindByID(ctx, actor.TenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// ListCashMovements returns every cash movement of a session
func (s *SessionService) ListCashMovements(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) ([]CashTransactionResponse, error) {
	if err := actor.Require(shared.CapTillOperate); err != nil {
		return nil, err
	}
	list, err := s.cash.FindBySession(ctx, actor.TenantID, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]CashTransactionResponse, len(list))
	for i := range list {
		out[i] = *toCashTransactionResponse(&list[i])
	}
	return out, nil
}

// RecomputeSession re-derives expected cash and variance of a closed session.
// Running it repeatedly over unchanged data leaves the session unchanged.
func (s *SessionService) RecomputeSession(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (resp *SessionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "till", "recompute_session",
		attribute.String("session_id", sessionID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := actor.Require(shared.CapTillSupervise); err != nil {
		return nil, err
	}

	var session *till.TillSession
	var changed bool
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		session, err = repos.Sessions().FindByIDForUpdate(ctx, actor.TenantID, sessionID)
		if err != nil {
			return err
		}
		changed, err = reconcile(ctx, repos, session, s.policy)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("till session recomputed",
		zap.String("session_id", session.ID.String()),
		zap.Bool("changed", changed),
		zap.String("expected_cash", session.ExpectedCash.StringFixed(2)),
		zap.String("variance", session.Variance.StringFixed(2)))
	return toSessionResponse(session), nil
}

// reconcile recomputes a closed session inside a transaction and stores it
func reconcile(ctx context.Context, repos ledger.Repositories, session *till.TillSession, policy till.VariancePolicy) (bool, error) {
	summary, err := summarize(ctx, repos.Sales(), repos.CashTransactions(), session)
	if err != nil {
		return false, err
	}
	changed, err := session.Reconcile(summary, policy)
	if err != nil {
		return false, err
	}
	if err := repos.Sessions().Update(ctx, session); err != nil {
		return false, err
	}
	return changed, nil
}

func summarize(ctx context.Context, saleRepo sales.SaleRepository, cash till.CashTransactionRepository, session *till.TillSession) (till.SessionSummary, error) {
	linked, err := saleRepo.FindBySession(ctx, session.TenantID, session.ID)
	if err != nil {
		return till.SessionSummary{}, err
	}
	movements, err := cash.FindBySession(ctx, session.TenantID, session.ID)
	if err != nil {
		return till.SessionSummary{}, err
	}
	return till.Summarize(session, linked, movements), nil
}
