package automation

import (
	"testing"

	"manaforge/internal/catalog"
	"manaforge/internal/progress"

	"github.com/stretchr/testify/assert"
)

func selectorCatalog() catalog.Catalog {
	return catalog.Catalog{
		Buildings: []catalog.Building{
			{ID: "wisp", BaseCost: 10, BaseRate: 0.5},
			{ID: "apprentice", BaseCost: 100, BaseRate: 4},
			{ID: "grove", BaseCost: 1200, BaseRate: 25},
		},
	}
}

func stateWith(mana float64, mode progress.AutoBuyerMode) progress.SaveState {
	st := progress.DefaultSaveState()
	st.Mana = mana
	st.AutoBuyer = progress.AutoBuyer{
		Unlocked:        true,
		Enabled:         true,
		Mode:            mode,
		MaxSpendPercent: 10,
	}
	return st
}

func TestSelectTarget_CheapestWithinBudget(t *testing.T) {
	// Budget 10% of 150 = 15: only the wisp (10) fits.
	st := stateWith(150, progress.BuyCheapest)
	assert.Equal(t, "wisp", SelectTarget(selectorCatalog(), st))
}

func TestSelectTarget_NothingAffordable(t *testing.T) {
	st := stateWith(50, progress.BuyCheapest) // budget 5 < cheapest 10
	assert.Equal(t, "", SelectTarget(selectorCatalog(), st))
}

func TestSelectTarget_CheapestAccountsForOwned(t *testing.T) {
	// 20 wisps push the wisp unit cost to ceil(10*1.18^20) = 274, past
	// the apprentice at 100.
	st := stateWith(10_000, progress.BuyCheapest)
	st.Buildings["wisp"] = 20
	assert.Equal(t, "apprentice", SelectTarget(selectorCatalog(), st))
}

func TestSelectTarget_MostEfficientPrefersCostPerRate(t *testing.T) {
	// wisp 10/0.5 = 20 per rate, apprentice 100/4 = 25, grove 1200/25 = 48.
	st := stateWith(20_000, progress.BuyMostEfficient)
	assert.Equal(t, "wisp", SelectTarget(selectorCatalog(), st))
}

func TestSelectTarget_MostEfficientSkipsOverBudget(t *testing.T) {
	// Budget 110: wisp is best but priced out by 30 owned units
	// (ceil(10*1.18^30) = 1434); apprentice (100, ratio 25) wins over
	// grove (over budget).
	st := stateWith(1_100, progress.BuyMostEfficient)
	st.Buildings["wisp"] = 30
	assert.Equal(t, "apprentice", SelectTarget(selectorCatalog(), st))
}

func TestSelectTarget_TargetBuilding(t *testing.T) {
	st := stateWith(20_000, progress.BuyTargetBuilding)
	st.AutoBuyer.TargetBuilding = "grove"
	assert.Equal(t, "grove", SelectTarget(selectorCatalog(), st))

	st.Mana = 1_000 // budget 100 < grove 1200
	assert.Equal(t, "", SelectTarget(selectorCatalog(), st))

	st.AutoBuyer.TargetBuilding = "ghost"
	assert.Equal(t, "", SelectTarget(selectorCatalog(), st))
}

func TestClickInterval_ScalesWithLevel(t *testing.T) {
	assert.Equal(t, clickInterval(progress.AutoClicker{Level: 1}).Milliseconds(), int64(1000))
	assert.Equal(t, clickInterval(progress.AutoClicker{Level: 4}).Milliseconds(), int64(250))
	assert.Equal(t, clickInterval(progress.AutoClicker{Level: 0}).Milliseconds(), int64(1000))
}
