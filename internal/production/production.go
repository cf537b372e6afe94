// Package production computes the two derived rates of the engine:
// mana per tick and mana per manual click. Compute is pure; the
// progression store re-invokes it after every mutation that could
// change an input and never trusts a cached result.
package production

import (
	"time"

	"manaforge/internal/catalog"
)

// Rates are derived values. They may be cached for display but are
// stale after any mutation.
type Rates struct {
	PerTick   float64 `json:"perTick"`
	PerAction float64 `json:"perAction"`
}

// Boost is a claimed, currently-ticking timed multiplier. Entries with
// a past ExpiresAt may still be present in the input list; Compute
// skips them without removing them.
type Boost struct {
	Scope      catalog.BoostScope
	Multiplier float64
	Target     string
	ExpiresAt  time.Time
}

// Input is the slice of progression state the rate computation reads.
type Input struct {
	BaseManaPerClick float64
	Buildings        map[string]int
	Upgrades         []string
	Talents          []string
	Boosts           []Boost
}

// Compute derives the current rates from holdings, upgrades, talents
// and unexpired boosts. With no building definitions loaded it falls
// back to zero passive rate and the bare click value.
func Compute(in Input, cat catalog.Catalog, now time.Time) Rates {
	if cat.Empty() {
		return Rates{PerTick: 0, PerAction: in.BaseManaPerClick}
	}

	globalMult := 1.0
	clickMult := 1.0
	rateFractionPerClick := 0.0
	buildingMult := map[string]float64{}

	owned := make(map[string]bool, len(in.Upgrades))
	for _, id := range in.Upgrades {
		owned[id] = true
	}
	for _, up := range cat.Upgrades {
		if !owned[up.ID] {
			continue
		}
		switch up.Kind {
		case catalog.UpgradeGlobalRate:
			globalMult *= up.Bonus
		case catalog.UpgradeClick:
			clickMult *= up.Bonus
		case catalog.UpgradeClickRate:
			rateFractionPerClick += up.Bonus
		case catalog.UpgradeBuilding:
			if up.Target != "" {
				buildingMult[up.Target] = multOrOne(buildingMult, up.Target) * up.Bonus
			}
		}
	}

	ownedTalents := make(map[string]bool, len(in.Talents))
	for _, id := range in.Talents {
		ownedTalents[id] = true
	}
	for _, tal := range cat.Talents {
		if !ownedTalents[tal.ID] {
			continue
		}
		if tal.Effect.Kind == catalog.TalentClickMult && tal.Effect.Value > 0 {
			clickMult *= tal.Effect.Value
		}
	}

	for _, b := range in.Boosts {
		if !b.ExpiresAt.After(now) {
			continue
		}
		switch b.Scope {
		case catalog.BoostGlobal:
			globalMult *= b.Multiplier
		case catalog.BoostClick:
			clickMult *= b.Multiplier
		case catalog.BoostBuilding:
			if b.Target != "" {
				buildingMult[b.Target] = multOrOne(buildingMult, b.Target) * b.Multiplier
			}
		}
	}

	base := 0.0
	for _, b := range cat.Buildings {
		count := in.Buildings[b.ID]
		base += float64(count) * b.BaseRate * multOrOne(buildingMult, b.ID)
	}

	perTick := base * globalMult
	perAction := in.BaseManaPerClick*clickMult + perTick*rateFractionPerClick

	return Rates{PerTick: perTick, PerAction: perAction}
}

func multOrOne(m map[string]float64, id string) float64 {
	if v, ok := m[id]; ok {
		return v
	}
	return 1
}
