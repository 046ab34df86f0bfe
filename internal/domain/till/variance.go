package till

import (
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// VarianceLevel classifies the gap between counted and expected cash
type VarianceLevel string

const (
	VarianceNormal   VarianceLevel = "NORMAL"
	VarianceWarning  VarianceLevel = "WARNING"
	VarianceCritical VarianceLevel = "CRITICAL"
)

// VariancePolicy holds the warning band. Anything above both limits is
// critical; anything within shared.MoneyTolerance is normal.
type VariancePolicy struct {
	WarningAbsolute decimal.Decimal
	WarningPercent  decimal.Decimal
}

// DefaultVariancePolicy warns up to 5.00 or 1% of expected cash
func DefaultVariancePolicy() VariancePolicy {
	return VariancePolicy{
		WarningAbsolute: decimal.NewFromInt(5),
		WarningPercent:  decimal.NewFromInt(1),
	}
}

// Classify returns the level for a variance against an expected amount
func (p VariancePolicy) Classify(variance, expected decimal.Decimal) VarianceLevel {
	abs := variance.Abs()
	if abs.LessThanOrEqual(shared.MoneyTolerance) {
		return VarianceNormal
	}
	limit := p.WarningAbsolute
	pct := expected.Abs().Mul(p.WarningPercent).Div(decimal.NewFromInt(100))
	if pct.GreaterThan(limit) {
		limit = pct
	}
	if abs.LessThanOrEqual(limit) {
		return VarianceWarning
	}
	return VarianceCritical
}
