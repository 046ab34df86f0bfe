package sales

import (
	"strings"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is a tender type
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "CASH"
	PaymentMethodCard    PaymentMethod = "CARD"
	PaymentMethodMobile  PaymentMethod = "MOBILE"
	PaymentMethodVoucher PaymentMethod = "VOUCHER"
	PaymentMethodOther   PaymentMethod = "OTHER"
	// PaymentMethodSplit is only used on Sale.PaymentMethod when more than
	// one tender type paid for the sale
	PaymentMethodSplit PaymentMethod = "SPLIT"
)

// ParsePaymentMethod parses a tender type. SPLIT is not a tender.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobile, PaymentMethodVoucher, PaymentMethodOther:
		return m, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, "unknown payment method "+s)
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// InvolvesCash reports whether a sale paid this way put cash in the drawer
func (m PaymentMethod) InvolvesCash() bool {
	return m == PaymentMethodCash || m == PaymentMethodSplit
}

// SalePayment is one tender on a sale. Amount is the part applied to the
// sale total. Tendered is the cash handed over (CASH only), which may exceed
// Amount; the difference was given back as change.
type SalePayment struct {
	ID       uuid.UUID
	SaleID   uuid.UUID
	Method   PaymentMethod
	Amount   decimal.Decimal
	Tendered decimal.Decimal
}

// PaymentInput describes a tender at checkout
type PaymentInput struct {
	Method   PaymentMethod
	Amount   decimal.Decimal
	Tendered *decimal.Decimal
}

func newSalePayment(saleID uuid.UUID, in PaymentInput) (SalePayment, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return SalePayment{}, shared.NewDomainError(shared.CodeInvalidInput, "Payment amount must be positive")
	}
	tendered := in.Amount
	if in.Tendered != nil {
		if in.Method != PaymentMethodCash {
			return SalePayment{}, shared.NewDomainError(shared.CodeInvalidInput, "Only cash payments can be over-tendered")
		}
		if in.Tendered.LessThan(in.Amount) {
			return SalePayment{}, shared.NewDomainError(shared.CodeInvalidInput, "Tendered cash cannot be less than the amount applied")
		}
		tendered = *in.Tendered
	}
	return SalePayment{
		ID:       uuid.New(),
		SaleID:   saleID,
		Method:   in.Method,
		Amount:   in.Amount,
		Tendered: tendered,
	}, nil
}

// Change returns the change handed back on this payment
func (p SalePayment) Change() decimal.Decimal {
	if p.Method != PaymentMethodCash {
		return decimal.Zero
	}
	return p.Tendered.Sub(p.Amount)
}

// CashReceived returns the cash taken into the drawer for this payment
func (p SalePayment) CashReceived() decimal.Decimal {
	if p.Method != PaymentMethodCash {
		return decimal.Zero
	}
	return p.Tendered
}
