package sales

import (
	"fmt"
	"strings"

	"github.com/erp/posledger/internal/domain/shared"
)

// SaleStatus is the lifecycle state of a sale
type SaleStatus string

const (
	SaleStatusPending           SaleStatus = "PENDING"
	SaleStatusCompleted         SaleStatus = "COMPLETED"
	SaleStatusPartiallyRefunded SaleStatus = "PARTIALLY_REFUNDED"
	SaleStatusRefunded          SaleStatus = "REFUNDED"
	SaleStatusCanceled          SaleStatus = "CANCELED"
	// SaleStatusCancelledLegacy is the historical spelling still present in
	// stored data. It behaves exactly like SaleStatusCanceled and is never
	// written by the ledger.
	SaleStatusCancelledLegacy SaleStatus = "CANCELLED"
	SaleStatusVoid            SaleStatus = "VOID"
)

// saleTransitions is the complete state machine. A status missing from the
// map, or mapped to an empty list, is terminal.
var saleTransitions = map[SaleStatus][]SaleStatus{
	SaleStatusPending:           {SaleStatusCompleted, SaleStatusCanceled, SaleStatusVoid},
	SaleStatusCompleted:         {SaleStatusPartiallyRefunded, SaleStatusRefunded, SaleStatusVoid},
	SaleStatusPartiallyRefunded: {SaleStatusRefunded},
	SaleStatusRefunded:          {},
	SaleStatusCanceled:          {},
	SaleStatusVoid:              {},
}

// ParseSaleStatus parses a status, accepting the legacy CANCELLED spelling
func ParseSaleStatus(s string) (SaleStatus, error) {
	status := SaleStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown sale status %q", s))
	}
	return status, nil
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is known
func (s SaleStatus) IsValid() bool {
	if s == SaleStatusCancelledLegacy {
		return true
	}
	_, ok := saleTransitions[s]
	return ok
}

// Normalize maps the legacy spelling onto its canonical value
func (s SaleStatus) Normalize() SaleStatus {
	if s == SaleStatusCancelledLegacy {
		return SaleStatusCanceled
	}
	return s
}

// IsCanceled reports CANCELED under either spelling
func (s SaleStatus) IsCanceled() bool {
	return s.Normalize() == SaleStatusCanceled
}

// IsTerminal returns true when no transition leaves this status
func (s SaleStatus) IsTerminal() bool {
	return len(saleTransitions[s.Normalize()]) == 0
}

// CountsTowardRevenue reports whether reports include a sale in this status.
// Canceled and pending sales are excluded, and so are returns against them.
func (s SaleStatus) CountsTowardRevenue() bool {
	switch s {
	case SaleStatusCanceled, SaleStatusCancelledLegacy, SaleStatusPending:
		return false
	}
	return true
}

// ContributesCash reports whether cash tendered on a sale in this status is
// expected to be in the drawer.
func (s SaleStatus) ContributesCash() bool {
	switch s.Normalize() {
	case SaleStatusCanceled, SaleStatusVoid:
		return false
	}
	return true
}

// RequiresVoidCapability reports whether moving into this status is a
// privileged correction
func (s SaleStatus) RequiresVoidCapability() bool {
	n := s.Normalize()
	return n == SaleStatusCanceled || n == SaleStatusVoid
}

// CanTransitionTo checks if the status can transition to the target status
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	target = target.Normalize()
	for _, allowed := range saleTransitions[s.Normalize()] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s
func (s SaleStatus) AllowedTransitions() []SaleStatus {
	allowed := saleTransitions[s.Normalize()]
	out := make([]SaleStatus, len(allowed))
	copy(out, allowed)
	return out
}
