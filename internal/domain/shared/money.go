package shared

import "github.com/shopspring/decimal"

// MoneyTolerance is the absolute difference under which two amounts are
// considered equal by ledger validation.
var MoneyTolerance = decimal.NewFromFloat(0.01)

// MoneyEqual reports whether a and b differ by at most MoneyTolerance
func MoneyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(MoneyTolerance)
}

// MoneyIsZero reports whether amount is within tolerance of zero
func MoneyIsZero(amount decimal.Decimal) bool {
	return MoneyEqual(amount, decimal.Zero)
}

// RoundMoney rounds an amount to cents for presentation and persistence of
// derived totals.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// SumMoney adds all amounts
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
