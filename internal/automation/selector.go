package automation

import (
	"manaforge/internal/catalog"
	"manaforge/internal/economy"
	"manaforge/internal/progress"
)

// SelectTarget picks the building the auto-buyer should buy one unit
// of, or "" when nothing qualifies. The budget is the configured share
// of current mana, so the buyer never drains the balance.
func SelectTarget(cat catalog.Catalog, st progress.SaveState) string {
	budget := st.Mana * st.AutoBuyer.MaxSpendPercent / 100

	switch st.AutoBuyer.Mode {
	case progress.BuyTargetBuilding:
		def, ok := cat.Building(st.AutoBuyer.TargetBuilding)
		if !ok {
			return ""
		}
		if economy.UnitCost(def.BaseCost, st.Buildings[def.ID]) <= budget {
			return def.ID
		}
		return ""

	case progress.BuyMostEfficient:
		best := ""
		bestRatio := 0.0
		for _, def := range cat.Buildings {
			if def.BaseRate <= 0 {
				continue
			}
			cost := economy.UnitCost(def.BaseCost, st.Buildings[def.ID])
			if cost > budget {
				continue
			}
			ratio := cost / def.BaseRate
			if best == "" || ratio < bestRatio {
				best = def.ID
				bestRatio = ratio
			}
		}
		return best

	default: // cheapest
		best := ""
		bestCost := 0.0
		for _, def := range cat.Buildings {
			cost := economy.UnitCost(def.BaseCost, st.Buildings[def.ID])
			if cost > budget {
				continue
			}
			if best == "" || cost < bestCost {
				best = def.ID
				bestCost = cost
			}
		}
		return best
	}
}
