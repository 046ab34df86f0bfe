package till

import (
	"github.com/erp/posledger/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionSummary is the read-side cash position of a session
type SessionSummary struct {
	SessionID    uuid.UUID
	Status       SessionStatus
	OpeningFloat decimal.Decimal
	// CashSales is the cash tendered on sales linked to the session
	CashSales   decimal.Decimal
	CashIn      decimal.Decimal
	CashOut     decimal.Decimal
	ChangeGiven decimal.Decimal
	// ByMethod totals the amounts applied per tender type
	ByMethod     map[sales.PaymentMethod]decimal.Decimal
	SalesCount   int
	ExpectedCash decimal.Decimal
	ClosingCash  *decimal.Decimal
	Variance     *decimal.Decimal
}

// Summarize computes
//
//	expected = openingFloat + cash tendered + CASH_IN − CASH_OUT − change
//
// over the sales linked to the session and its cash movements. Sales in a
// status that returned the money (canceled, void) are skipped. It does not
// modify its inputs.
func Summarize(s *TillSession, linked []sales.Sale, movements []CashTransaction) SessionSummary {
	sum := SessionSummary{
		SessionID:    s.ID,
		Status:       s.Status,
		OpeningFloat: s.OpeningFloat,
		CashSales:    decimal.Zero,
		CashIn:       decimal.Zero,
		CashOut:      decimal.Zero,
		ChangeGiven:  decimal.Zero,
		ByMethod:     make(map[sales.PaymentMethod]decimal.Decimal),
		ClosingCash:  s.ClosingCash,
	}

	for i := range linked {
		sale := &linked[i]
		if sale.TillSessionID == nil || *sale.TillSessionID != s.ID {
			continue
		}
		if !sale.Status.ContributesCash() {
			continue
		}
		sum.SalesCount++
		sum.CashSales = sum.CashSales.Add(sale.CashTendered())
		sum.ChangeGiven = sum.ChangeGiven.Add(sale.ChangeGiven())
		for _, p := range sale.Payments {
			sum.ByMethod[p.Method] = sum.ByMethod[p.Method].Add(p.Amount)
		}
	}

	for _, m := range movements {
		if m.TillSessionID != s.ID {
			continue
		}
		switch m.Type {
		case CashIn:
			sum.CashIn = sum.CashIn.Add(m.Amount)
		case CashOut:
			sum.CashOut = sum.CashOut.Add(m.Amount)
		}
	}

	sum.ExpectedCash = s.OpeningFloat.
		Add(sum.CashSales).
		Add(sum.CashIn).
		Sub(sum.CashOut).
		Sub(sum.ChangeGiven)

	if s.ClosingCash != nil {
		v := s.ClosingCash.Sub(sum.ExpectedCash)
		sum.Variance = &v
	}
	return sum
}
