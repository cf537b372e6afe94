package persist

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"manaforge/internal/catalog"
	"manaforge/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthority() (*authority, *progress.FakeClock) {
	clock := progress.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return newAuthority(catalog.Seed(), 0, clock, rand.New(rand.NewSource(3))), clock
}

func TestAuthority_AscendBelowThresholdRejected(t *testing.T) {
	a, _ := testAuthority()
	_, _, err := a.apply(progress.SaveState{TotalManaEarned: 500}, progress.ConfirmAscend, "")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestAuthority_AscendReturnsAuthoritativeState(t *testing.T) {
	a, _ := testAuthority()
	st := progress.SaveState{
		Mana:            2_000_000,
		TotalManaEarned: 10_000_000,
		Buildings:       map[string]int{"wisp": 12},
		Talents:         []string{"firm_grip"},
	}
	next, conf, err := a.apply(st, progress.ConfirmAscend, "")
	require.NoError(t, err)
	require.NotNil(t, conf.State)

	assert.Equal(t, 0.0, next.Mana)
	assert.Empty(t, next.Buildings)
	assert.Equal(t, 20.0, next.CurrentEssence)
	assert.Equal(t, 1, next.AscensionCount)
	assert.Equal(t, 10_000_000.0, next.TotalManaEarned)
	assert.Equal(t, []string{"firm_grip"}, next.Talents)
	assert.Equal(t, next.CurrentEssence, conf.State.CurrentEssence)
}

func TestAuthority_BuyTalentValidation(t *testing.T) {
	a, _ := testAuthority()

	_, _, err := a.apply(progress.SaveState{CurrentEssence: 100}, progress.ConfirmBuyTalent, "swift_strikes")
	assert.ErrorIs(t, err, ErrRejected, "missing prerequisite")

	_, _, err = a.apply(progress.SaveState{CurrentEssence: 1}, progress.ConfirmBuyTalent, "firm_grip")
	assert.ErrorIs(t, err, ErrRejected, "too little essence")

	next, _, err := a.apply(progress.SaveState{CurrentEssence: 10}, progress.ConfirmBuyTalent, "firm_grip")
	require.NoError(t, err)
	assert.Equal(t, 5.0, next.CurrentEssence)
	assert.Equal(t, []string{"firm_grip"}, next.Talents)
}

func TestAuthority_ResetTalentsRefund(t *testing.T) {
	a, _ := testAuthority()
	st := progress.SaveState{Talents: []string{"firm_grip", "swift_strikes"}} // 5 + 15 spent
	next, conf, err := a.apply(st, progress.ConfirmResetTalents, "")
	require.NoError(t, err)
	require.NotNil(t, conf.RefundedEssence)
	assert.Equal(t, 15.0, *conf.RefundedEssence)
	assert.Empty(t, next.Talents)
	assert.Equal(t, 15.0, next.CurrentEssence)
}

func TestAuthority_BuyRuneGates(t *testing.T) {
	a, _ := testAuthority()

	_, _, err := a.apply(progress.SaveState{CurrentEssence: 500}, progress.ConfirmBuyRune, "rune_of_commerce")
	assert.ErrorIs(t, err, ErrRejected, "ascension requirement")

	next, _, err := a.apply(progress.SaveState{CurrentEssence: 500}, progress.ConfirmBuyRune, "rune_of_hands")
	require.NoError(t, err)
	assert.True(t, next.AutoClicker.Unlocked)
	assert.Equal(t, 475.0, next.CurrentEssence)

	_, _, err = a.apply(next, progress.ConfirmBuyRune, "rune_of_hands")
	assert.ErrorIs(t, err, ErrRejected, "max level reached")
}

func TestAuthority_ToggleRequiresUnlock(t *testing.T) {
	a, _ := testAuthority()
	_, _, err := a.apply(progress.SaveState{}, progress.ConfirmToggleAutoClicker, "")
	assert.ErrorIs(t, err, ErrRejected)

	st := progress.SaveState{AutoClicker: progress.AutoClicker{Unlocked: true}}
	_, _, err = a.apply(st, progress.ConfirmToggleAutoClicker, "")
	assert.NoError(t, err)
}

func TestAuthority_ClaimSurgeInstantReward(t *testing.T) {
	a, clock := testAuthority()
	st := progress.SaveState{
		Buildings:   map[string]int{"apprentice": 10}, // 40/s
		ActiveSurge: &progress.ActiveSurge{Type: "mana_rain", ExpiresAt: clock.Now().Add(5 * time.Second)},
	}
	next, conf, err := a.apply(st, progress.ConfirmClaimSurge, "mana_rain")
	require.NoError(t, err)
	require.NotNil(t, conf.Reward)
	assert.InDelta(t, 40*progress.InstantRewardSeconds, *conf.Reward, 1e-6)
	assert.InDelta(t, *conf.Reward, next.Mana, 1e-6)
	assert.Nil(t, next.ActiveSurge)
}

func TestAuthority_ClaimSurgeTimedAppendsBoost(t *testing.T) {
	a, clock := testAuthority()
	st := progress.SaveState{
		ActiveSurge: &progress.ActiveSurge{Type: "golden_orb", ExpiresAt: clock.Now().Add(5 * time.Second)},
	}
	next, conf, err := a.apply(st, progress.ConfirmClaimSurge, "golden_orb")
	require.NoError(t, err)
	assert.Nil(t, conf.Reward)
	require.Len(t, next.ActiveBoosts, 1)
	assert.Equal(t, catalog.BoostGlobal, next.ActiveBoosts[0].Scope)
	assert.Equal(t, clock.Now().Add(77*time.Second), next.ActiveBoosts[0].ExpiresAt)
}

func TestAuthority_ClaimExpiredSurgeRejected(t *testing.T) {
	a, clock := testAuthority()
	st := progress.SaveState{
		ActiveSurge: &progress.ActiveSurge{Type: "mana_rain", ExpiresAt: clock.Now().Add(-time.Second)},
	}
	_, _, err := a.apply(st, progress.ConfirmClaimSurge, "mana_rain")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestAuthority_UnknownKindRejected(t *testing.T) {
	a, _ := testAuthority()
	_, _, err := a.apply(progress.SaveState{}, progress.ConfirmKind("frobnicate"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
}
