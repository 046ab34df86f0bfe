// Package report aggregates sales and returns into period statistics.
package report

import (
	"time"

	"github.com/erp/posledger/internal/domain/sales"
	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stats is the revenue read model for a period
type Stats struct {
	PeriodStart      time.Time                               `json:"period_start"`
	PeriodEnd        time.Time                               `json:"period_end"`
	StoreID          *uuid.UUID                              `json:"store_id,omitempty"`
	GrossRevenue     decimal.Decimal                         `json:"gross_revenue"`
	Refunds          decimal.Decimal                         `json:"refunds"`
	Revenue          decimal.Decimal                         `json:"revenue"`
	Cost             decimal.Decimal                         `json:"cost"`
	Profit           decimal.Decimal                         `json:"profit"`
	ProfitMargin     decimal.Decimal                         `json:"profit_margin"` // Percentage of revenue
	PaymentBreakdown map[sales.PaymentMethod]decimal.Decimal `json:"payment_breakdown"`
	Counts           Counts                                  `json:"counts"`
}

// Counts explains which records were used
type Counts struct {
	Sales          int `json:"sales"`
	ExcludedSales  int `json:"excluded_sales"`
	Returns        int `json:"returns"`
	IgnoredReturns int `json:"ignored_returns"`
}

// Input is everything ComputeStats needs. Parents must contain the parent
// sale of every return, including parents created outside the period.
type Input struct {
	Period  sales.Period
	StoreID *uuid.UUID
	Sales   []sales.Sale
	Returns []sales.SalesReturn
	Parents map[uuid.UUID]*sales.Sale
}

// ComputeStats combines sales and returns under the status-inclusion policy:
//
//  1. Sales whose status counts toward revenue add their total, their
//     cost at sale and their payments.
//  2. A return is applied only if its parent sale counts toward revenue.
//     It subtracts its total from revenue, removes the refund from the
//     parent's payment methods pro rata, and reverses the cost of restocked
//     units.
//  3. profit = revenue − cost.
//
// A canceled or pending sale therefore contributes nothing, and neither does
// any return recorded against it.
func ComputeStats(in Input) Stats {
	st := Stats{
		PeriodStart:      in.Period.From,
		PeriodEnd:        in.Period.To,
		StoreID:          in.StoreID,
		GrossRevenue:     decimal.Zero,
		Refunds:          decimal.Zero,
		Cost:             decimal.Zero,
		PaymentBreakdown: make(map[sales.PaymentMethod]decimal.Decimal),
	}

	for i := range in.Sales {
		sale := &in.Sales[i]
		if !inStore(sale, in.StoreID) {
			continue
		}
		if !sale.Status.CountsTowardRevenue() {
			st.Counts.ExcludedSales++
			continue
		}
		st.Counts.Sales++
		st.GrossRevenue = st.GrossRevenue.Add(sale.Total)
		st.Cost = st.Cost.Add(sale.TotalCost())
		for _, p := range sale.Payments {
			st.PaymentBreakdown[p.Method] = st.PaymentBreakdown[p.Method].Add(p.Amount)
		}
	}

	for i := range in.Returns {
		ret := &in.Returns[i]
		parent, ok := in.Parents[ret.SaleID]
		if !ok || !inStore(parent, in.StoreID) {
			continue
		}
		if !parent.Status.CountsTowardRevenue() {
			st.Counts.IgnoredReturns++
			continue
		}
		st.Counts.Returns++
		st.Refunds = st.Refunds.Add(ret.Total)
		deallocate(st.PaymentBreakdown, parent, ret.Total)
		for _, item := range ret.Items {
			if !item.Restock {
				continue
			}
			saleItem := parent.ItemFor(item.ProductID)
			if saleItem == nil {
				continue
			}
			st.Cost = st.Cost.Sub(saleItem.CostAtSale.Mul(decimal.NewFromInt(item.Quantity)))
		}
	}

	st.Revenue = st.GrossRevenue.Sub(st.Refunds)
	st.Profit = st.Revenue.Sub(st.Cost)
	if !st.Revenue.IsZero() {
		st.ProfitMargin = st.Profit.Div(st.Revenue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	for method, amount := range st.PaymentBreakdown {
		st.PaymentBreakdown[method] = shared.RoundMoney(amount)
	}
	return st
}

// deallocate removes refund from the breakdown in proportion to how the
// parent sale was paid
func deallocate(breakdown map[sales.PaymentMethod]decimal.Decimal, parent *sales.Sale, refund decimal.Decimal) {
	totalPaid := parent.TotalPaid()
	if totalPaid.IsZero() {
		return
	}
	for _, p := range parent.Payments {
		share := refund.Mul(p.Amount).Div(totalPaid)
		breakdown[p.Method] = breakdown[p.Method].Sub(share)
	}
}

func inStore(sale *sales.Sale, storeID *uuid.UUID) bool {
	return storeID == nil || sale.StoreID == *storeID
}
