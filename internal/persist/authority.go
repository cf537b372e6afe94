package persist

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"manaforge/internal/catalog"
	"manaforge/internal/production"
	"manaforge/internal/progress"
)

// authority holds the server-side confirmation rules. Both backends
// delegate here so a memory-backed session and a SQL-backed one make
// identical decisions.
type authority struct {
	cat       catalog.Catalog
	threshold float64
	clock     progress.Clock
	rng       *rand.Rand
}

func newAuthority(cat catalog.Catalog, threshold float64, clock progress.Clock, rng *rand.Rand) *authority {
	if threshold <= 0 {
		threshold = progress.DefaultAscensionThreshold
	}
	if clock == nil {
		clock = progress.RealClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &authority{cat: cat, threshold: threshold, clock: clock, rng: rng}
}

// apply validates the operation against the stored state and returns
// the updated state plus the outcome the client should adopt.
// Validation failures wrap ErrRejected.
func (a *authority) apply(st progress.SaveState, kind progress.ConfirmKind, id string) (progress.SaveState, progress.Confirmation, error) {
	st.Normalize()
	switch kind {
	case progress.ConfirmAscend:
		return a.ascend(st)
	case progress.ConfirmBuyTalent:
		return a.buyTalent(st, id)
	case progress.ConfirmResetTalents:
		return a.resetTalents(st)
	case progress.ConfirmBuyRune:
		return a.buyRune(st, id)
	case progress.ConfirmToggleAutoClicker:
		if !st.AutoClicker.Unlocked {
			return st, progress.Confirmation{}, fmt.Errorf("%w: auto-clicker locked", ErrRejected)
		}
		return st, progress.Confirmation{}, nil
	case progress.ConfirmConfigureAutoBuyer:
		if !st.AutoBuyer.Unlocked {
			return st, progress.Confirmation{}, fmt.Errorf("%w: auto-buyer locked", ErrRejected)
		}
		return st, progress.Confirmation{}, nil
	case progress.ConfirmClaimSurge:
		return a.claimSurge(st, id)
	default:
		return st, progress.Confirmation{}, fmt.Errorf("%w: unknown operation %q", ErrRejected, kind)
	}
}

func (a *authority) ascend(st progress.SaveState) (progress.SaveState, progress.Confirmation, error) {
	gain := progress.EssenceGain(st.TotalManaEarned, a.threshold)
	if gain <= 0 {
		return st, progress.Confirmation{}, fmt.Errorf("%w: below ascension threshold", ErrRejected)
	}
	next := progress.ApplyAscension(st, gain)
	adopted := next.Clone()
	return next, progress.Confirmation{State: &adopted}, nil
}

func (a *authority) buyTalent(st progress.SaveState, id string) (progress.SaveState, progress.Confirmation, error) {
	def, ok := a.cat.Talent(id)
	if !ok {
		return st, progress.Confirmation{}, fmt.Errorf("%w: unknown talent %q", ErrRejected, id)
	}
	if st.HasTalent(id) {
		return st, progress.Confirmation{}, fmt.Errorf("%w: talent %q already owned", ErrRejected, id)
	}
	for _, req := range def.Requires {
		if !st.HasTalent(req) {
			return st, progress.Confirmation{}, fmt.Errorf("%w: talent %q requires %q", ErrRejected, id, req)
		}
	}
	if st.CurrentEssence < def.EssenceCost {
		return st, progress.Confirmation{}, fmt.Errorf("%w: not enough essence for talent %q", ErrRejected, id)
	}
	st.CurrentEssence -= def.EssenceCost
	st.Talents = append(st.Talents, id)
	return st, progress.Confirmation{}, nil
}

func (a *authority) resetTalents(st progress.SaveState) (progress.SaveState, progress.Confirmation, error) {
	if len(st.Talents) == 0 {
		return st, progress.Confirmation{}, fmt.Errorf("%w: no talents to reset", ErrRejected)
	}
	spent := 0.0
	for _, id := range st.Talents {
		if def, ok := a.cat.Talent(id); ok {
			spent += def.EssenceCost
		}
	}
	refund := progress.TalentRefundFraction * spent
	st.Talents = []string{}
	st.CurrentEssence += refund
	return st, progress.Confirmation{RefundedEssence: &refund}, nil
}

func (a *authority) buyRune(st progress.SaveState, id string) (progress.SaveState, progress.Confirmation, error) {
	def, ok := a.cat.Rune(id)
	if !ok {
		return st, progress.Confirmation{}, fmt.Errorf("%w: unknown rune %q", ErrRejected, id)
	}
	if st.RuneLevel(id) >= def.MaxLevel {
		return st, progress.Confirmation{}, fmt.Errorf("%w: rune %q at max level", ErrRejected, id)
	}
	if st.AscensionCount < def.RequiredAscensions {
		return st, progress.Confirmation{}, fmt.Errorf("%w: rune %q needs %d ascensions", ErrRejected, id, def.RequiredAscensions)
	}
	if st.CurrentEssence < def.Cost {
		return st, progress.Confirmation{}, fmt.Errorf("%w: not enough essence for rune %q", ErrRejected, id)
	}
	st.CurrentEssence -= def.Cost
	st.Runes = append(st.Runes, id)
	progress.ApplyRuneEffects(&st, a.cat)
	return st, progress.Confirmation{}, nil
}

func (a *authority) claimSurge(st progress.SaveState, id string) (progress.SaveState, progress.Confirmation, error) {
	now := a.clock.Now()
	if st.ActiveSurge == nil || !st.ActiveSurge.ExpiresAt.After(now) || st.ActiveSurge.Type != id {
		return st, progress.Confirmation{}, fmt.Errorf("%w: no claimable surge of type %q", ErrRejected, id)
	}
	def, ok := a.cat.SurgeType(id)
	if !ok {
		return st, progress.Confirmation{}, fmt.Errorf("%w: unknown surge type %q", ErrRejected, id)
	}
	st.ActiveSurge = nil

	switch def.Effect.Kind {
	case catalog.SurgeInstant:
		rates := production.Compute(st.ProductionInput(), a.cat, now)
		reward := rates.PerTick * progress.InstantRewardSeconds
		st.Mana += reward
		st.TotalManaEarned += reward
		return st, progress.Confirmation{Reward: &reward}, nil
	case catalog.SurgeTimed:
		boost := progress.ActiveBoost{
			ID:         uuid.NewString(),
			Surge:      def.ID,
			Scope:      def.Effect.Scope,
			Multiplier: def.Effect.Multiplier,
			ExpiresAt:  now.Add(time.Duration(def.Effect.DurationSecs) * time.Second),
		}
		if def.Effect.RandomTarget && len(a.cat.Buildings) > 0 {
			boost.Target = a.cat.Buildings[a.rng.Intn(len(a.cat.Buildings))].ID
		}
		st.ActiveBoosts = append(st.ActiveBoosts, boost)
		return st, progress.Confirmation{}, nil
	default:
		return st, progress.Confirmation{}, fmt.Errorf("%w: surge %q has no effect", ErrRejected, id)
	}
}
