// Package economy holds the purchase-cost math. Everything here is a
// pure function; callers validate inputs (non-negative counts and
// budgets) before calling.
package economy

import "math"

// GrowthFactor is the geometric cost growth per owned unit.
const GrowthFactor = 1.18

// UnitCost is the price of the next unit when owned units are already
// held. Costs are always whole-unit, rounded up.
func UnitCost(baseCost float64, owned int) float64 {
	return math.Ceil(baseCost * math.Pow(GrowthFactor, float64(owned)))
}

// BulkCost is the price of buying quantity units starting from owned.
// It is the explicit per-term sum so every unit keeps its own ceiling;
// a closed-form geometric series would round differently.
func BulkCost(baseCost float64, owned, quantity int) float64 {
	total := 0.0
	for i := 0; i < quantity; i++ {
		total += UnitCost(baseCost, owned+i)
	}
	return total
}

// MaxAffordable is the largest quantity whose BulkCost fits the budget,
// found by greedy accumulation. Returns 0 when even one unit is out of
// reach.
func MaxAffordable(baseCost float64, owned int, budget float64) int {
	count := 0
	total := 0.0
	for {
		next := UnitCost(baseCost, owned+count)
		if total+next > budget {
			return count
		}
		total += next
		count++
	}
}
