package progress

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"manaforge/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		Buildings: []catalog.Building{
			{ID: "wisp", BaseCost: 10, BaseRate: 0.5},
			{ID: "grove", BaseCost: 1200, BaseRate: 25},
		},
		Upgrades: []catalog.Upgrade{
			{ID: "triple_click", Kind: catalog.UpgradeClick, Bonus: 3, Cost: 50},
			{ID: "gated", Kind: catalog.UpgradeGlobalRate, Bonus: 2, Cost: 10, RequiredBuilding: "wisp", RequiredCount: 5},
		},
		Achievements: []catalog.Achievement{
			{ID: "first_spark", Condition: catalog.CondTotalMana, Value: 100},
			{ID: "calloused", Condition: catalog.CondClickCount, Value: 3},
		},
		SurgeTypes: []catalog.SurgeType{
			{ID: "mana_rain", Weight: 0.5, ClaimWindowSecs: 10, Effect: catalog.SurgeEffect{Kind: catalog.SurgeInstant}},
			{ID: "golden_orb", Weight: 0.5, ClaimWindowSecs: 12, Effect: catalog.SurgeEffect{Kind: catalog.SurgeTimed, Multiplier: 7, DurationSecs: 77, Scope: catalog.BoostGlobal}},
		},
		Talents: []catalog.Talent{
			{ID: "firm_grip", EssenceCost: 5, Effect: catalog.TalentEffect{Kind: catalog.TalentClickMult, Value: 1.5}},
			{ID: "swift_strikes", EssenceCost: 15, Requires: []string{"firm_grip"},
				Effect: catalog.TalentEffect{Kind: catalog.TalentClickMult, Value: 2}},
		},
		Runes: []catalog.Rune{
			{ID: "rune_of_hands", Cost: 25, MaxLevel: 1, Effect: catalog.RuneEffect{Kind: catalog.RuneUnlockAutoClicker}},
			{ID: "rune_of_commerce", Cost: 50, MaxLevel: 1, RequiredAscensions: 2, Effect: catalog.RuneEffect{Kind: catalog.RuneUnlockAutoBuyer}},
			{ID: "rune_of_haste", Cost: 10, MaxLevel: 4, Effect: catalog.RuneEffect{Kind: catalog.RuneAutoClickerSpeed}},
		},
	}
}

func newStoreForTest(initial SaveState) (*Store, *FakeClock) {
	clock := NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(Options{
		Catalog: testCatalog(),
		Initial: initial,
		Clock:   clock,
		Rand:    rand.New(rand.NewSource(1)),
	})
	return s, clock
}

func TestIncrementMana_UpdatesBothCounters(t *testing.T) {
	s, _ := newStoreForTest(SaveState{})
	snap := s.IncrementMana(42)
	assert.Equal(t, 42.0, snap.Mana)
	assert.Equal(t, 42.0, snap.TotalManaEarned)
}

func TestClick_GrantsPerActionRate(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 50})
	s.BuyUpgrade("triple_click")
	snap := s.Click()
	assert.Equal(t, 3.0, snap.Mana)
	assert.Equal(t, int64(1), snap.ClickCount)
}

func TestBuyBuilding_DeductsExactUnitCost(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 25})
	snap := s.BuyBuilding("wisp")
	assert.Equal(t, 15.0, snap.Mana)
	assert.Equal(t, 1, snap.Buildings["wisp"])

	// Second unit costs 12; 15 covers it.
	snap = s.BuyBuilding("wisp")
	assert.Equal(t, 3.0, snap.Mana)
	assert.Equal(t, 2, snap.Buildings["wisp"])

	// Third costs 14; unaffordable, state untouched, never negative.
	snap = s.BuyBuilding("wisp")
	assert.Equal(t, 3.0, snap.Mana)
	assert.Equal(t, 2, snap.Buildings["wisp"])
}

func TestBuyBuildingBulk_Validation(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 100})

	snap := s.BuyBuildingBulk("wisp", 0)
	assert.Empty(t, snap.Buildings)

	snap = s.BuyBuildingBulk("ghost", 2)
	assert.Empty(t, snap.Buildings)

	// 10+12+14 = 36.
	snap = s.BuyBuildingBulk("wisp", 3)
	assert.Equal(t, 64.0, snap.Mana)
	assert.Equal(t, 3, snap.Buildings["wisp"])
}

func TestBuySelected_MaxResolvesGreatestAffordable(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 100})
	s.SetPurchaseMultiplier(MultiplierMax)
	snap := s.BuySelected("wisp")
	// 10+12+14+17+20+23 = 96 fits; the 7th unit (27) does not.
	assert.Equal(t, 6, snap.Buildings["wisp"])
	assert.Equal(t, 4.0, snap.Mana)
}

func TestSetPurchaseMultiplier_RejectsUnknownValues(t *testing.T) {
	s, _ := newStoreForTest(SaveState{})
	s.SetPurchaseMultiplier(10)
	s.SetPurchaseMultiplier(7)
	assert.Equal(t, PurchaseMultiplier(10), s.PurchaseMultiplier())
}

func TestBuyUpgrade_IdempotentSecondBuy(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 200})
	snap := s.BuyUpgrade("triple_click")
	require.Equal(t, 150.0, snap.Mana)
	require.True(t, snap.HasUpgrade("triple_click"))

	again := s.BuyUpgrade("triple_click")
	assert.Equal(t, snap.Mana, again.Mana)
	assert.Equal(t, snap.Upgrades, again.Upgrades)
}

func TestBuyUpgrade_RequirementGate(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 1000})
	snap := s.BuyUpgrade("gated")
	assert.False(t, snap.HasUpgrade("gated"))

	s.BuyBuildingBulk("wisp", 5)
	snap = s.BuyUpgrade("gated")
	assert.True(t, snap.HasUpgrade("gated"))
}

func TestAscend_BelowThresholdNoop(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 500, TotalManaEarned: 500})
	snap := s.Ascend(context.Background())
	assert.Equal(t, 500.0, snap.Mana)
	assert.Equal(t, 0, snap.AscensionCount)
}

func TestAscend_ResetsRunPreservesPermanent(t *testing.T) {
	initial := SaveState{
		Mana:            2_000_000,
		TotalManaEarned: 10_000_000, // log10 = 7 -> gain 20
		Buildings:       map[string]int{"wisp": 30},
		Upgrades:        []string{"triple_click"},
		Achievements:    []string{"first_spark"},
		Talents:         []string{"firm_grip"},
		Runes:           []string{"rune_of_hands"},
		ClickCount:      99,
		AutoClicker:     AutoClicker{Unlocked: true, Enabled: true, Level: 2},
	}
	s, _ := newStoreForTest(initial)
	snap := s.Ascend(context.Background())

	assert.Equal(t, 0.0, snap.Mana)
	assert.Empty(t, snap.Buildings)
	assert.Empty(t, snap.Upgrades)
	assert.Equal(t, int64(0), snap.ClickCount)

	assert.Equal(t, 20.0, snap.CurrentEssence)
	assert.Equal(t, 20.0, snap.TotalEssenceEarned)
	assert.Equal(t, 1, snap.AscensionCount)
	assert.Equal(t, 10_000_000.0, snap.TotalManaEarned)
	assert.Equal(t, []string{"firm_grip"}, snap.Talents)
	assert.Equal(t, []string{"rune_of_hands"}, snap.Runes)
	assert.Contains(t, snap.Achievements, "first_spark")
	assert.True(t, snap.AutoClicker.Unlocked)
}

func TestAscend_AdoptsCollaboratorState(t *testing.T) {
	server := SaveState{CurrentEssence: 123, AscensionCount: 7}
	confirmer := ConfirmerFunc(func(_ context.Context, kind ConfirmKind, _ string, _ SaveState) (Confirmation, error) {
		require.Equal(t, ConfirmAscend, kind)
		return Confirmation{State: &server}, nil
	})
	s := NewStore(Options{
		Catalog:   testCatalog(),
		Initial:   SaveState{TotalManaEarned: 10_000_000},
		Confirmer: confirmer,
	})
	snap := s.Ascend(context.Background())
	assert.Equal(t, 123.0, snap.CurrentEssence)
	assert.Equal(t, 7, snap.AscensionCount)
	// Adopted state is normalized, not trusted blindly.
	assert.Equal(t, 1.0, snap.BaseManaPerClick)
}

func TestAscend_ConfirmFailureLeavesStateUnchanged(t *testing.T) {
	confirmer := ConfirmerFunc(func(context.Context, ConfirmKind, string, SaveState) (Confirmation, error) {
		return Confirmation{}, errors.New("network down")
	})
	s := NewStore(Options{
		Catalog:   testCatalog(),
		Initial:   SaveState{Mana: 5, TotalManaEarned: 10_000_000},
		Confirmer: confirmer,
	})
	snap := s.Ascend(context.Background())
	assert.Equal(t, 5.0, snap.Mana)
	assert.Equal(t, 0, snap.AscensionCount)
}

func TestBuyTalent_PrerequisiteAndEssenceChecks(t *testing.T) {
	s, _ := newStoreForTest(SaveState{CurrentEssence: 100})

	snap := s.BuyTalent(context.Background(), "swift_strikes")
	assert.Empty(t, snap.Talents, "prerequisite not owned")

	snap = s.BuyTalent(context.Background(), "firm_grip")
	require.Equal(t, []string{"firm_grip"}, snap.Talents)
	assert.Equal(t, 95.0, snap.CurrentEssence)

	snap = s.BuyTalent(context.Background(), "swift_strikes")
	assert.Equal(t, []string{"firm_grip", "swift_strikes"}, snap.Talents)
	assert.Equal(t, 80.0, snap.CurrentEssence)

	// Buying again is a no-op.
	snap = s.BuyTalent(context.Background(), "firm_grip")
	assert.Equal(t, 80.0, snap.CurrentEssence)
}

func TestResetTalents_LocalRefundPrediction(t *testing.T) {
	s, _ := newStoreForTest(SaveState{CurrentEssence: 0, Talents: []string{"firm_grip", "swift_strikes"}})
	snap := s.ResetTalents(context.Background())
	assert.Empty(t, snap.Talents)
	// 75% of 20 spent.
	assert.Equal(t, 15.0, snap.CurrentEssence)
}

func TestResetTalents_ServerRefundWins(t *testing.T) {
	refund := 11.0
	confirmer := ConfirmerFunc(func(context.Context, ConfirmKind, string, SaveState) (Confirmation, error) {
		return Confirmation{RefundedEssence: &refund}, nil
	})
	s := NewStore(Options{
		Catalog:   testCatalog(),
		Initial:   SaveState{Talents: []string{"firm_grip"}},
		Confirmer: confirmer,
	})
	snap := s.ResetTalents(context.Background())
	assert.Empty(t, snap.Talents)
	assert.Equal(t, 11.0, snap.CurrentEssence)
}

func TestResetTalents_NoneOwnedNoop(t *testing.T) {
	s, _ := newStoreForTest(SaveState{CurrentEssence: 3})
	snap := s.ResetTalents(context.Background())
	assert.Equal(t, 3.0, snap.CurrentEssence)
}

func TestBuyRune_GatesAndSideEffects(t *testing.T) {
	s, _ := newStoreForTest(SaveState{CurrentEssence: 200})

	// Ascension-gated rune rejected.
	snap := s.BuyRune(context.Background(), "rune_of_commerce")
	assert.False(t, snap.AutoBuyer.Unlocked)

	snap = s.BuyRune(context.Background(), "rune_of_hands")
	assert.True(t, snap.AutoClicker.Unlocked)
	assert.Equal(t, 175.0, snap.CurrentEssence)

	// MaxLevel 1: a repeat buy is a no-op.
	snap = s.BuyRune(context.Background(), "rune_of_hands")
	assert.Equal(t, 175.0, snap.CurrentEssence)
	assert.Equal(t, 1, snap.RuneLevel("rune_of_hands"))
}

func TestBuyRune_HasteRaisesAutoClickerLevel(t *testing.T) {
	s, _ := newStoreForTest(SaveState{CurrentEssence: 100})
	s.BuyRune(context.Background(), "rune_of_haste")
	snap := s.BuyRune(context.Background(), "rune_of_haste")
	assert.Equal(t, 2, snap.RuneLevel("rune_of_haste"))
	assert.Equal(t, 3, snap.AutoClicker.Level)
}

func TestToggleAutoClicker_LockedNoop(t *testing.T) {
	s, _ := newStoreForTest(SaveState{})
	snap := s.ToggleAutoClicker(context.Background(), true)
	assert.False(t, snap.AutoClicker.Enabled)

	s2, _ := newStoreForTest(SaveState{AutoClicker: AutoClicker{Unlocked: true, Level: 1}})
	snap = s2.ToggleAutoClicker(context.Background(), true)
	assert.True(t, snap.AutoClicker.Enabled)
}

func TestConfigureAutoBuyer_PatchMergeAndValidation(t *testing.T) {
	s, _ := newStoreForTest(SaveState{AutoBuyer: AutoBuyer{Unlocked: true, Mode: BuyCheapest, MaxSpendPercent: 10}})

	mode := BuyTargetBuilding
	target := "grove"
	pct := 25.0
	snap := s.ConfigureAutoBuyer(context.Background(), AutoBuyerPatch{Mode: &mode, TargetBuilding: &target, MaxSpendPercent: &pct})
	assert.Equal(t, BuyTargetBuilding, snap.AutoBuyer.Mode)
	assert.Equal(t, "grove", snap.AutoBuyer.TargetBuilding)
	assert.Equal(t, 25.0, snap.AutoBuyer.MaxSpendPercent)

	bad := AutoBuyerMode("yolo")
	snap = s.ConfigureAutoBuyer(context.Background(), AutoBuyerPatch{Mode: &bad})
	assert.Equal(t, BuyTargetBuilding, snap.AutoBuyer.Mode)

	over := 150.0
	snap = s.ConfigureAutoBuyer(context.Background(), AutoBuyerPatch{MaxSpendPercent: &over})
	assert.Equal(t, 25.0, snap.AutoBuyer.MaxSpendPercent)
}

func TestSpawnSurge_SetsClaimWindowAndBlocksWhileActive(t *testing.T) {
	s, clock := newStoreForTest(SaveState{})
	snap := s.SpawnSurge()
	require.NotNil(t, snap.ActiveSurge)
	first := snap.ActiveSurge.Type
	assert.True(t, snap.ActiveSurge.ExpiresAt.After(clock.Now()))

	// Active surge blocks a second spawn.
	snap = s.SpawnSurge()
	require.NotNil(t, snap.ActiveSurge)
	assert.Equal(t, first, snap.ActiveSurge.Type)

	// An expired surge counts as inactive and may be replaced.
	clock.Advance(time.Minute)
	snap = s.SpawnSurge()
	require.NotNil(t, snap.ActiveSurge)
	assert.True(t, snap.ActiveSurge.ExpiresAt.After(clock.Now()))
}

func TestClaimSurge_NoActiveSurgeNoop(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 7})
	snap := s.ClaimSurge(context.Background(), "mana_rain")
	assert.Equal(t, 7.0, snap.Mana)
	assert.Empty(t, snap.ActiveBoosts)
}

func TestClaimSurge_InstantGrantsManaOnly(t *testing.T) {
	s, clock := newStoreForTest(SaveState{Mana: 1000, Buildings: map[string]int{"grove": 4}})
	// rate = 100/s; force the known surge.
	s.state.ActiveSurge = &ActiveSurge{Type: "mana_rain", ExpiresAt: clock.Now().Add(10 * time.Second)}

	snap := s.ClaimSurge(context.Background(), "mana_rain")
	assert.Nil(t, snap.ActiveSurge)
	assert.InDelta(t, 1000+100*InstantRewardSeconds, snap.Mana, 1e-6)
	assert.Empty(t, snap.ActiveBoosts, "instant claim must not add a boost")
}

func TestClaimSurge_TimedAppendsBoostOnly(t *testing.T) {
	s, clock := newStoreForTest(SaveState{Mana: 50})
	s.state.ActiveSurge = &ActiveSurge{Type: "golden_orb", ExpiresAt: clock.Now().Add(10 * time.Second)}

	snap := s.ClaimSurge(context.Background(), "golden_orb")
	assert.Nil(t, snap.ActiveSurge)
	assert.Equal(t, 50.0, snap.Mana, "timed claim must not grant mana")
	require.Len(t, snap.ActiveBoosts, 1)
	b := snap.ActiveBoosts[0]
	assert.Equal(t, catalog.BoostGlobal, b.Scope)
	assert.Equal(t, 7.0, b.Multiplier)
	assert.Equal(t, clock.Now().Add(77*time.Second), b.ExpiresAt)
	assert.NotEmpty(t, b.ID)
}

func TestClaimSurge_ExpiredTreatedAsInactive(t *testing.T) {
	s, clock := newStoreForTest(SaveState{Mana: 5})
	s.state.ActiveSurge = &ActiveSurge{Type: "mana_rain", ExpiresAt: clock.Now().Add(-time.Second)}

	snap := s.ClaimSurge(context.Background(), "mana_rain")
	assert.Equal(t, 5.0, snap.Mana)
}

func TestClaimSurge_TypeMismatchNoop(t *testing.T) {
	s, clock := newStoreForTest(SaveState{Mana: 5})
	s.state.ActiveSurge = &ActiveSurge{Type: "golden_orb", ExpiresAt: clock.Now().Add(10 * time.Second)}

	snap := s.ClaimSurge(context.Background(), "mana_rain")
	assert.NotNil(t, snap.ActiveSurge)
	assert.Equal(t, 5.0, snap.Mana)
}

func TestClaimSurge_ServerRewardWins(t *testing.T) {
	reward := 777.0
	confirmer := ConfirmerFunc(func(context.Context, ConfirmKind, string, SaveState) (Confirmation, error) {
		return Confirmation{Reward: &reward}, nil
	})
	clock := NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(Options{Catalog: testCatalog(), Clock: clock, Confirmer: confirmer})
	s.state.ActiveSurge = &ActiveSurge{Type: "mana_rain", ExpiresAt: clock.Now().Add(10 * time.Second)}

	snap := s.ClaimSurge(context.Background(), "mana_rain")
	assert.Equal(t, 777.0, snap.Mana)
}

func TestDismissSurge_ClearsWithoutReward(t *testing.T) {
	s, clock := newStoreForTest(SaveState{Mana: 9})
	s.state.ActiveSurge = &ActiveSurge{Type: "mana_rain", ExpiresAt: clock.Now().Add(10 * time.Second)}

	snap := s.DismissSurge()
	assert.Nil(t, snap.ActiveSurge)
	assert.Equal(t, 9.0, snap.Mana)
}

func TestExpiredBoostPrunedOnNextClaim(t *testing.T) {
	s, clock := newStoreForTest(SaveState{})
	s.state.ActiveBoosts = []ActiveBoost{
		{ID: "old", Scope: catalog.BoostGlobal, Multiplier: 2, ExpiresAt: clock.Now().Add(-time.Minute)},
	}
	s.state.ActiveSurge = &ActiveSurge{Type: "golden_orb", ExpiresAt: clock.Now().Add(10 * time.Second)}

	snap := s.ClaimSurge(context.Background(), "golden_orb")
	require.Len(t, snap.ActiveBoosts, 1)
	assert.NotEqual(t, "old", snap.ActiveBoosts[0].ID)
}

func TestSubscribe_NotifiesAndCancels(t *testing.T) {
	s, _ := newStoreForTest(SaveState{})
	var seen []float64
	cancel := s.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.Mana)
	})

	s.IncrementMana(1)
	s.IncrementMana(2)
	cancel()
	s.IncrementMana(3)

	assert.Equal(t, []float64{1, 3}, seen)
}

func TestSaveState_NormalizesOldSaves(t *testing.T) {
	s, _ := newStoreForTest(SaveState{Mana: 5}) // nil maps and slices
	st := s.SaveState()
	assert.NotNil(t, st.Buildings)
	assert.Equal(t, 1.0, st.BaseManaPerClick)
	assert.Equal(t, BuyCheapest, st.AutoBuyer.Mode)
	assert.Equal(t, 10.0, st.AutoBuyer.MaxSpendPercent)
	assert.False(t, st.LastUpdate.IsZero())
}

func TestAchievements_UnlockOnCommit(t *testing.T) {
	s, _ := newStoreForTest(SaveState{})
	snap := s.IncrementMana(150)
	assert.Contains(t, snap.Achievements, "first_spark")

	s.Click()
	s.Click()
	snap = s.Click()
	assert.Contains(t, snap.Achievements, "calloused")
}

func TestEssenceGain_MonotonicAndGated(t *testing.T) {
	assert.Equal(t, 0.0, EssenceGain(999_999, DefaultAscensionThreshold))
	assert.Equal(t, 10.0, EssenceGain(1_000_000, DefaultAscensionThreshold))
	assert.Equal(t, 20.0, EssenceGain(10_000_000, DefaultAscensionThreshold))
	prev := 0.0
	for total := 1_000_000.0; total < 1e12; total *= 3 {
		gain := EssenceGain(total, DefaultAscensionThreshold)
		assert.GreaterOrEqual(t, gain, prev)
		prev = gain
	}
}
