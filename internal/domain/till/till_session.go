package till

import (
	"fmt"
	"time"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the state of a till session
type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// TillSession is one cashier's working period on a till.
// OPEN -> CLOSED, once. Closing stores expected cash and variance; the only
// later change is a reconciliation that re-derives both from current data.
type TillSession struct {
	shared.TenantAggregateRoot
	TillID        uuid.UUID
	StoreID       uuid.UUID
	UserID        uuid.UUID
	Status        SessionStatus
	OpeningFloat  decimal.Decimal
	ClosingCash   *decimal.Decimal
	ExpectedCash  *decimal.Decimal
	Variance      *decimal.Decimal
	VarianceLevel VarianceLevel
	OpenedAt      time.Time
	ClosedAt      *time.Time
	ClosedBy      *uuid.UUID
	ReconciledAt  *time.Time
}

// OpenSession starts a session on a till. Uniqueness of OPEN sessions is
// checked by the caller against the store.
func OpenSession(t *Till, userID uuid.UUID, openingFloat decimal.Decimal) (*TillSession, error) {
	if t == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Till not found")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "User is required")
	}
	if openingFloat.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Opening float cannot be negative")
	}
	s := &TillSession{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(t.TenantID),
		TillID:              t.ID,
		StoreID:             t.StoreID,
		UserID:              userID,
		Status:              SessionOpen,
		OpeningFloat:        openingFloat,
	}
	s.OpenedAt = s.CreatedAt
	s.AddDomainEvent(NewTillSessionOpenedEvent(s))
	return s, nil
}

// IsOpen reports whether the session still accepts sales and cash movements
func (s *TillSession) IsOpen() bool {
	return s.Status == SessionOpen
}

// EnsureOpen returns INVALID_STATE unless the session is open
func (s *TillSession) EnsureOpen() error {
	if !s.IsOpen() {
		return shared.NewDomainError(shared.CodeInvalidState, "Till session is closed")
	}
	return nil
}

// CanBeClosedBy reports whether actor may close this session
func (s *TillSession) CanBeClosedBy(actor shared.Actor) bool {
	return actor.UserID == s.UserID || actor.Capabilities.Has(shared.CapTillSupervise)
}

// Close records the counted cash against the summary and ends the session
func (s *TillSession) Close(summary SessionSummary, countedCash decimal.Decimal, closedBy uuid.UUID, policy VariancePolicy) error {
	if err := s.EnsureOpen(); err != nil {
		return err
	}
	if countedCash.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Counted cash cannot be negative")
	}
	if summary.SessionID != s.ID {
		return shared.NewDomainError(shared.CodeInvalidInput, "Summary belongs to another session")
	}
	now := time.Now().UTC()
	counted := countedCash
	s.ClosingCash = &counted
	s.applyTotals(summary, policy)
	s.Status = SessionClosed
	s.ClosedAt = &now
	s.ClosedBy = &closedBy
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewTillSessionClosedEvent(s))
	return nil
}

// Reconcile re-derives expected cash and variance of a closed session from a
// fresh summary. Running it again over the same data yields the same totals.
// It returns true when the stored totals changed.
func (s *TillSession) Reconcile(summary SessionSummary, policy VariancePolicy) (bool, error) {
	if s.Status != SessionClosed || s.ClosingCash == nil {
		return false, shared.NewDomainError(shared.CodeInvalidState, "Only closed sessions can be reconciled")
	}
	if summary.SessionID != s.ID {
		return false, shared.NewDomainError(shared.CodeInvalidInput, "Summary belongs to another session")
	}
	before := s.ExpectedCash
	s.applyTotals(summary, policy)
	changed := before == nil || !before.Equal(*s.ExpectedCash)

	now := time.Now().UTC()
	s.ReconciledAt = &now
	s.UpdatedAt = now
	if changed {
		s.IncrementVersion()
	}
	return changed, nil
}

func (s *TillSession) applyTotals(summary SessionSummary, policy VariancePolicy) {
	expected := summary.ExpectedCash
	variance := s.ClosingCash.Sub(expected)
	s.ExpectedCash = &expected
	s.Variance = &variance
	s.VarianceLevel = policy.Classify(variance, expected)
}

// String is used in log lines
func (s *TillSession) String() string {
	return fmt.Sprintf("TillSession(%s till=%s user=%s %s)", s.ID, s.TillID, s.UserID, s.Status)
}
