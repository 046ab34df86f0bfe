package till

import (
	"testing"

	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newOpenSession(t *testing.T, float string) *TillSession {
	t.Helper()
	tl, err := NewTill(uuid.New(), uuid.New(), "Front")
	require.NoError(t, err)
	s, err := OpenSession(tl, uuid.New(), d(float))
	require.NoError(t, err)
	return s
}

func cashSale(t *testing.T, s *TillSession, amount, tendered string, status sales.SaleStatus) sales.Sale {
	t.Helper()
	tend := d(tendered)
	sale, err := sales.NewSale(sales.NewSaleParams{
		TenantID:      s.TenantID,
		StoreID:       s.StoreID,
		UserID:        s.UserID,
		TillSessionID: &s.ID,
		Items:         []sales.ItemInput{{ProductID: uuid.New(), Quantity: 1, PriceAtSale: d(amount)}},
		Payments:      []sales.PaymentInput{{Method: sales.PaymentMethodCash, Amount: d(amount), Tendered: &tend}},
	})
	require.NoError(t, err)
	sale.Status = status
	return *sale
}

func movement(t *testing.T, s *TillSession, typ CashTransactionType, amount string) CashTransaction {
	t.Helper()
	tx, err := NewCashTransaction(CashTransactionParams{
		Session:   s,
		Type:      typ,
		Amount:    d(amount),
		Reason:    "test",
		CreatedBy: s.UserID,
	})
	require.NoError(t, err)
	return *tx
}

func TestSummarize(t *testing.T) {
	s := newOpenSession(t, "100")

	linked := []sales.Sale{
		cashSale(t, s, "30", "50", sales.SaleStatusCompleted),
		cashSale(t, s, "20", "20", sales.SaleStatusRefunded),
		cashSale(t, s, "999", "999", sales.SaleStatusVoid),
	}
	moves := []CashTransaction{
		movement(t, s, CashIn, "10"),
		movement(t, s, CashOut, "15"),
	}

	sum := Summarize(s, linked, moves)

	assert.True(t, sum.CashSales.Equal(d("70")), sum.CashSales.String())
	assert.True(t, sum.ChangeGiven.Equal(d("20")))
	assert.True(t, sum.CashIn.Equal(d("10")))
	assert.True(t, sum.CashOut.Equal(d("15")))
	assert.Equal(t, 2, sum.SalesCount)
	assert.True(t, sum.ByMethod[sales.PaymentMethodCash].Equal(d("50")))
	// 100 + 70 + 10 - 15 - 20
	assert.True(t, sum.ExpectedCash.Equal(d("145")), sum.ExpectedCash.String())
	assert.Nil(t, sum.Variance)
}

func TestTillSession_CloseAndReconcile(t *testing.T) {
	s := newOpenSession(t, "100")
	linked := []sales.Sale{cashSale(t, s, "40", "40", sales.SaleStatusCompleted)}

	require.NoError(t, s.Close(Summarize(s, linked, nil), d("138"), s.UserID, DefaultVariancePolicy()))

	assert.Equal(t, SessionClosed, s.Status)
	assert.True(t, s.ExpectedCash.Equal(d("140")))
	assert.True(t, s.Variance.Equal(d("-2")))
	assert.Equal(t, VarianceWarning, s.VarianceLevel)
	assert.NotNil(t, s.ClosedAt)

	err := s.Close(Summarize(s, linked, nil), d("140"), s.UserID, DefaultVariancePolicy())
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	// a refund cash-out discovered later
	late := []CashTransaction{movement(t, s, CashOut, "2")}

	changed, err := s.Reconcile(Summarize(s, linked, late), DefaultVariancePolicy())
	require.NoError(t, err)
	assert.True(t, changed)
	firstExpected, firstVariance := *s.ExpectedCash, *s.Variance

	changed, err = s.Reconcile(Summarize(s, linked, late), DefaultVariancePolicy())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, s.ExpectedCash.Equal(firstExpected))
	assert.True(t, s.Variance.Equal(firstVariance))
	assert.True(t, s.Variance.IsZero())
	assert.Equal(t, VarianceNormal, s.VarianceLevel)
}

func TestTillSession_ReconcileOpenFails(t *testing.T) {
	s := newOpenSession(t, "0")
	_, err := s.Reconcile(Summarize(s, nil, nil), DefaultVariancePolicy())
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestVariancePolicy_Classify(t *testing.T) {
	p := DefaultVariancePolicy()

	tests := []struct {
		variance, expected string
		want               VarianceLevel
	}{
		{"0.01", "100", VarianceNormal},
		{"-4.99", "100", VarianceWarning},
		{"6", "100", VarianceCritical},
		{"9", "1000", VarianceWarning},
		{"11", "1000", VarianceCritical},
	}
	for _, tt := range tests {
		t.Run(tt.variance+"/"+tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(d(tt.variance), d(tt.expected)))
		})
	}
}

func TestTillSession_CanBeClosedBy(t *testing.T) {
	s := newOpenSession(t, "0")

	assert.True(t, s.CanBeClosedBy(shared.Actor{UserID: s.UserID}))
	assert.False(t, s.CanBeClosedBy(shared.Actor{UserID: uuid.New()}))
	assert.True(t, s.CanBeClosedBy(shared.Actor{
		UserID:       uuid.New(),
		Capabilities: shared.ResolveCapabilities([]string{"till:supervise"}),
	}))
}

func TestRefundCashGap_Resolve(t *testing.T) {
	ret := &sales.SalesReturn{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
		SaleID:              uuid.New(),
		StoreID:             uuid.New(),
		CreatedBy:           uuid.New(),
		Total:               d("25"),
	}
	gap, err := NewRefundCashGap(ret, GapDetectedAtReturn)
	require.NoError(t, err)
	assert.Equal(t, GapPending, gap.Status)
	assert.True(t, gap.Amount.Equal(d("25")))

	require.NoError(t, gap.Resolve(uuid.New(), uuid.New()))
	assert.Equal(t, GapResolved, gap.Status)
	assert.Error(t, gap.Resolve(uuid.New(), uuid.New()))
}
