package inventory

import "github.com/shopspring/decimal"

// costScale is the number of decimal places kept on unit costs
const costScale = 4

// WeightedAverageCost blends existing stock value with a receipt:
//
//	(currentQty*currentCost + receivedQty*unitCost) / (currentQty+receivedQty)
//
// When there is no positive stock on hand the previous cost carries no
// information and the incoming unitCost is used. The same applies when the
// resulting quantity is not positive.
func WeightedAverageCost(currentQty int64, currentCost decimal.Decimal, receivedQty int64, unitCost decimal.Decimal) decimal.Decimal {
	if currentQty <= 0 {
		return unitCost
	}
	totalQty := currentQty + receivedQty
	if totalQty <= 0 {
		return unitCost
	}
	current := decimal.NewFromInt(currentQty)
	received := decimal.NewFromInt(receivedQty)
	totalValue := current.Mul(currentCost).Add(received.Mul(unitCost))
	return totalValue.Div(decimal.NewFromInt(totalQty)).Round(costScale)
}
