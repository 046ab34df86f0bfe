package sales

import (
	"testing"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func baseParams() NewSaleParams {
	return NewSaleParams{
		TenantID: uuid.New(),
		StoreID:  uuid.New(),
		UserID:   uuid.New(),
	}
}

func TestNewSale(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()

	t.Run("computes totals and single payment method", func(t *testing.T) {
		p := baseParams()
		p.Items = []ItemInput{
			{ProductID: productA, Quantity: 2, PriceAtSale: dec("50"), CostAtSale: dec("20")},
			{ProductID: productB, Quantity: 1, PriceAtSale: dec("10"), CostAtSale: dec("4")},
		}
		p.DiscountAmount = dec("5")
		p.TaxAmount = dec("1.50")
		p.Payments = []PaymentInput{{Method: PaymentMethodCash, Amount: dec("106.50"), Tendered: decPtr("120")}}

		sale, err := NewSale(p)
		require.NoError(t, err)

		assert.True(t, sale.Subtotal.Equal(dec("110")))
		assert.True(t, sale.Total.Equal(dec("106.50")))
		assert.True(t, sale.TotalCost().Equal(dec("44")))
		assert.Equal(t, PaymentMethodCash, sale.PaymentMethod)
		assert.Equal(t, SaleStatusCompleted, sale.Status)
		assert.True(t, sale.CashTendered().Equal(dec("120")))
		assert.True(t, sale.ChangeGiven().Equal(dec("13.50")))
		assert.Len(t, sale.GetDomainEvents(), 1)
	})

	t.Run("split payment", func(t *testing.T) {
		p := baseParams()
		p.Items = []ItemInput{{ProductID: productA, Quantity: 1, PriceAtSale: dec("100")}}
		p.Payments = []PaymentInput{
			{Method: PaymentMethodCash, Amount: dec("40")},
			{Method: PaymentMethodCard, Amount: dec("60")},
		}

		sale, err := NewSale(p)
		require.NoError(t, err)
		assert.Equal(t, PaymentMethodSplit, sale.PaymentMethod)
		assert.True(t, sale.PaidWithCash())
	})

	t.Run("payment mismatch outside tolerance", func(t *testing.T) {
		p := baseParams()
		p.Items = []ItemInput{{ProductID: productA, Quantity: 1, PriceAtSale: dec("100")}}
		p.Payments = []PaymentInput{{Method: PaymentMethodCard, Amount: dec("99.98")}}

		_, err := NewSale(p)
		require.Error(t, err)
		assert.Equal(t, shared.CodePaymentMismatch, shared.ErrorCode(err))
	})

	t.Run("payment within tolerance", func(t *testing.T) {
		p := baseParams()
		p.Items = []ItemInput{{ProductID: productA, Quantity: 3, PriceAtSale: dec("33.33")}}
		p.Payments = []PaymentInput{{Method: PaymentMethodCard, Amount: dec("100")}}

		_, err := NewSale(p)
		require.NoError(t, err)
	})

	t.Run("pending sale may be unpaid", func(t *testing.T) {
		p := baseParams()
		p.Status = SaleStatusPending
		p.Items = []ItemInput{{ProductID: productA, Quantity: 1, PriceAtSale: dec("100")}}

		sale, err := NewSale(p)
		require.NoError(t, err)
		assert.Equal(t, PaymentMethod(""), sale.PaymentMethod)
	})

	t.Run("merges repeated product at same price", func(t *testing.T) {
		p := baseParams()
		p.Items = []ItemInput{
			{ProductID: productA, Quantity: 1, PriceAtSale: dec("5")},
			{ProductID: productA, Quantity: 2, PriceAtSale: dec("5")},
		}
		p.Payments = []PaymentInput{{Method: PaymentMethodCard, Amount: dec("15")}}

		sale, err := NewSale(p)
		require.NoError(t, err)
		require.Len(t, sale.Items, 1)
		assert.Equal(t, int64(3), sale.Items[0].Quantity)
	})

	t.Run("rejects repeated product at different prices", func(t *testing.T) {
		p := baseParams()
		p.Items = []ItemInput{
			{ProductID: productA, Quantity: 1, PriceAtSale: dec("5")},
			{ProductID: productA, Quantity: 1, PriceAtSale: dec("6")},
		}
		_, err := NewSale(p)
		assert.Error(t, err)
	})

	t.Run("over-tendering only for cash", func(t *testing.T) {
		p := baseParams()
		p.Items = []ItemInput{{ProductID: productA, Quantity: 1, PriceAtSale: dec("10")}}
		p.Payments = []PaymentInput{{Method: PaymentMethodCard, Amount: dec("10"), Tendered: decPtr("20")}}
		_, err := NewSale(p)
		assert.Error(t, err)
	})

	t.Run("rejects empty and non-positive lines", func(t *testing.T) {
		p := baseParams()
		_, err := NewSale(p)
		assert.Error(t, err)

		p.Items = []ItemInput{{ProductID: productA, Quantity: 0, PriceAtSale: dec("10")}}
		_, err = NewSale(p)
		assert.Equal(t, shared.CodeInvalidQuantity, shared.ErrorCode(err))
	})
}

func TestSale_TransitionTo(t *testing.T) {
	p := baseParams()
	p.Items = []ItemInput{{ProductID: uuid.New(), Quantity: 1, PriceAtSale: dec("10")}}
	p.Payments = []PaymentInput{{Method: PaymentMethodCash, Amount: dec("10")}}
	sale, err := NewSale(p)
	require.NoError(t, err)
	sale.ClearDomainEvents()

	require.NoError(t, sale.TransitionTo(SaleStatusRefunded, "customer returned everything"))
	assert.Equal(t, SaleStatusRefunded, sale.Status)
	assert.NotNil(t, sale.StatusChangedAt)
	assert.Equal(t, 2, sale.Version)
	require.Len(t, sale.GetDomainEvents(), 1)

	err = sale.TransitionTo(SaleStatusCompleted, "")
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidStatusTransition, shared.ErrorCode(err))
}

func TestSale_CompletePendingRequiresFullPayment(t *testing.T) {
	p := baseParams()
	p.Status = SaleStatusPending
	p.Items = []ItemInput{{ProductID: uuid.New(), Quantity: 1, PriceAtSale: dec("10")}}
	p.Payments = []PaymentInput{{Method: PaymentMethodCard, Amount: dec("4")}}
	sale, err := NewSale(p)
	require.NoError(t, err)

	err = sale.TransitionTo(SaleStatusCompleted, "")
	assert.Equal(t, shared.CodePaymentMismatch, shared.ErrorCode(err))
	assert.Equal(t, SaleStatusPending, sale.Status)

	require.NoError(t, sale.TransitionTo(SaleStatusCancelledLegacy, "abandoned"))
	assert.Equal(t, SaleStatusCanceled, sale.Status)
}
