// Package progress owns the player's mutable progression. The Store
// is the single writer: every mutation runs read-validate-write under
// one lock, recomputes the derived rates, and hands subscribers a
// consistent snapshot. Ordinary failures (can't afford, already owned,
// feature locked) are silent no-ops that return the unchanged state.
package progress

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"manaforge/internal/catalog"
	"manaforge/internal/economy"
	"manaforge/internal/production"
)

// InstantRewardSeconds scales an instant surge reward: the claim grants
// this many seconds' worth of passive production.
const InstantRewardSeconds = 900

type Store struct {
	mu    sync.Mutex
	state SaveState
	rates production.Rates

	cat       catalog.Catalog
	clock     Clock
	rng       *rand.Rand
	confirmer Confirmer
	logger    *log.Logger
	threshold float64

	multiplier PurchaseMultiplier

	subs    map[int]func(Snapshot)
	nextSub int
}

type Options struct {
	Catalog catalog.Catalog
	// Initial is the loaded save; missing fields are defaulted.
	Initial SaveState
	Clock   Clock
	Rand    *rand.Rand
	// Confirmer fronts the persistence collaborator for the operations
	// it validates server-side. Nil means local predictions stand.
	Confirmer Confirmer
	Logger    *log.Logger
	// AscensionThreshold defaults to DefaultAscensionThreshold.
	AscensionThreshold float64
}

func NewStore(opts Options) *Store {
	st := opts.Initial
	st.Normalize()
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.AscensionThreshold <= 0 {
		opts.AscensionThreshold = DefaultAscensionThreshold
	}
	s := &Store{
		state:      st,
		cat:        opts.Catalog,
		clock:      opts.Clock,
		rng:        opts.Rand,
		confirmer:  opts.Confirmer,
		logger:     opts.Logger,
		threshold:  opts.AscensionThreshold,
		multiplier: 1,
		subs:       map[int]func(Snapshot){},
	}
	s.recomputeLocked()
	return s
}

// Catalog returns the static definitions the store was built with.
func (s *Store) Catalog() catalog.Catalog { return s.cat }

// Snapshot returns a consistent, caller-owned view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SaveState returns the persistable state with a fresh LastUpdate.
func (s *Store) SaveState() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state.Clone()
	st.LastUpdate = s.clock.Now()
	return st
}

// Subscribe registers an observer invoked after every mutation with
// the new snapshot. The returned func cancels the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SetPurchaseMultiplier stores the session bulk-buy preference.
// Accepted values: 1, 10, 25, 50 and MultiplierMax.
func (s *Store) SetPurchaseMultiplier(m PurchaseMultiplier) {
	switch m {
	case 1, 10, 25, 50, MultiplierMax:
	default:
		return
	}
	s.mu.Lock()
	s.multiplier = m
	s.mu.Unlock()
}

func (s *Store) PurchaseMultiplier() PurchaseMultiplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.multiplier
}

// IncrementMana credits mana and the lifetime counter. Callers own the
// sign; the tick loop and automation only ever pass model outputs.
func (s *Store) IncrementMana(amount float64) Snapshot {
	s.mu.Lock()
	s.state.Mana += amount
	s.state.TotalManaEarned += amount
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// Click performs one manual action worth the current per-action rate.
func (s *Store) Click() Snapshot {
	s.mu.Lock()
	amount := s.rates.PerAction
	s.state.Mana += amount
	s.state.TotalManaEarned += amount
	s.state.ClickCount++
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// BuyBuilding buys one unit at the current unit cost.
func (s *Store) BuyBuilding(id string) Snapshot {
	return s.BuyBuildingBulk(id, 1)
}

// BuyBuildingBulk buys quantity units priced by the per-term bulk sum.
// No-op if quantity is not positive, the id is unknown, or the total
// is unaffordable.
func (s *Store) BuyBuildingBulk(id string, quantity int) Snapshot {
	s.mu.Lock()
	if quantity <= 0 {
		return s.unlockNoop()
	}
	def, ok := s.cat.Building(id)
	if !ok {
		return s.unlockNoop()
	}
	owned := s.state.Buildings[id]
	cost := economy.BulkCost(def.BaseCost, owned, quantity)
	if s.state.Mana < cost {
		return s.unlockNoop()
	}
	s.state.Mana -= cost
	s.state.Buildings[id] = owned + quantity
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// BuySelected buys according to the session purchase multiplier,
// resolving MultiplierMax to the greatest affordable quantity.
func (s *Store) BuySelected(id string) Snapshot {
	s.mu.Lock()
	def, ok := s.cat.Building(id)
	if !ok {
		return s.unlockNoop()
	}
	quantity := int(s.multiplier)
	if s.multiplier == MultiplierMax {
		quantity = economy.MaxAffordable(def.BaseCost, s.state.Buildings[id], s.state.Mana)
	}
	s.mu.Unlock()
	return s.BuyBuildingBulk(id, quantity)
}

// BuyUpgrade is a one-time purchase; buying an owned upgrade is a
// no-op, as is buying one whose unlock requirement is not met.
func (s *Store) BuyUpgrade(id string) Snapshot {
	s.mu.Lock()
	def, ok := s.cat.Upgrade(id)
	if !ok || s.state.HasUpgrade(id) {
		return s.unlockNoop()
	}
	if def.RequiredBuilding != "" && s.state.Buildings[def.RequiredBuilding] < def.RequiredCount {
		return s.unlockNoop()
	}
	if def.RequiredTotalMana > 0 && s.state.TotalManaEarned < def.RequiredTotalMana {
		return s.unlockNoop()
	}
	if s.state.Mana < def.Cost {
		return s.unlockNoop()
	}
	s.state.Mana -= def.Cost
	s.state.Upgrades = append(s.state.Upgrades, id)
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// EssencePreview is the essence an ascension would grant right now.
func (s *Store) EssencePreview() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EssenceGain(s.state.TotalManaEarned, s.threshold)
}

// Ascend resets run progress for essence. The collaborator may return
// the authoritative post-ascension state, which replaces the local
// prediction wholesale.
func (s *Store) Ascend(ctx context.Context) Snapshot {
	s.mu.Lock()
	gain := EssenceGain(s.state.TotalManaEarned, s.threshold)
	if gain <= 0 {
		return s.unlockNoop()
	}
	current := s.state.Clone()
	s.mu.Unlock()

	conf, ok := s.confirm(ctx, ConfirmAscend, "", current)
	if !ok {
		return s.Snapshot()
	}

	s.mu.Lock()
	if conf.State != nil {
		adopted := conf.State.Clone()
		adopted.Normalize()
		s.state = adopted
	} else {
		s.state = ApplyAscension(s.state, gain)
	}
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// BuyTalent spends essence on a talent once all prerequisites are
// owned.
func (s *Store) BuyTalent(ctx context.Context, id string) Snapshot {
	s.mu.Lock()
	def, ok := s.cat.Talent(id)
	if !ok || s.state.HasTalent(id) || s.state.CurrentEssence < def.EssenceCost {
		return s.unlockNoop()
	}
	for _, req := range def.Requires {
		if !s.state.HasTalent(req) {
			return s.unlockNoop()
		}
	}
	current := s.state.Clone()
	s.mu.Unlock()

	if _, ok := s.confirm(ctx, ConfirmBuyTalent, id, current); !ok {
		return s.Snapshot()
	}

	s.mu.Lock()
	if s.state.HasTalent(id) || s.state.CurrentEssence < def.EssenceCost {
		return s.unlockNoop()
	}
	s.state.CurrentEssence -= def.EssenceCost
	s.state.Talents = append(s.state.Talents, id)
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// ResetTalents clears the talent set for a refund. The locally shown
// figure is a preview; the collaborator's refund is adopted when
// present.
func (s *Store) ResetTalents(ctx context.Context) Snapshot {
	s.mu.Lock()
	if len(s.state.Talents) == 0 {
		return s.unlockNoop()
	}
	refund := TalentRefundFraction * s.talentSpendLocked()
	current := s.state.Clone()
	s.mu.Unlock()

	conf, ok := s.confirm(ctx, ConfirmResetTalents, "", current)
	if !ok {
		return s.Snapshot()
	}
	if conf.RefundedEssence != nil {
		refund = *conf.RefundedEssence
	}

	s.mu.Lock()
	if len(s.state.Talents) == 0 {
		return s.unlockNoop()
	}
	s.state.Talents = s.state.Talents[:0]
	s.state.CurrentEssence += refund
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

func (s *Store) talentSpendLocked() float64 {
	total := 0.0
	for _, id := range s.state.Talents {
		if def, ok := s.cat.Talent(id); ok {
			total += def.EssenceCost
		}
	}
	return total
}

// BuyRune appends one level of a repeatable rune and applies its
// unlock side effects.
func (s *Store) BuyRune(ctx context.Context, id string) Snapshot {
	s.mu.Lock()
	def, ok := s.cat.Rune(id)
	if !ok ||
		s.state.RuneLevel(id) >= def.MaxLevel ||
		s.state.AscensionCount < def.RequiredAscensions ||
		s.state.CurrentEssence < def.Cost {
		return s.unlockNoop()
	}
	current := s.state.Clone()
	s.mu.Unlock()

	if _, ok := s.confirm(ctx, ConfirmBuyRune, id, current); !ok {
		return s.Snapshot()
	}

	s.mu.Lock()
	if s.state.RuneLevel(id) >= def.MaxLevel || s.state.CurrentEssence < def.Cost {
		return s.unlockNoop()
	}
	s.state.CurrentEssence -= def.Cost
	s.state.Runes = append(s.state.Runes, id)
	s.applyRuneEffectsLocked()
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

func (s *Store) applyRuneEffectsLocked() {
	ApplyRuneEffects(&s.state, s.cat)
}

// ApplyRuneEffects re-derives the unlock flags and auto-clicker level
// from the rune multiset. Shared with the persistence side so both
// apply identical semantics.
func ApplyRuneEffects(st *SaveState, cat catalog.Catalog) {
	speed := 0
	for _, def := range cat.Runes {
		level := st.RuneLevel(def.ID)
		if level == 0 {
			continue
		}
		switch def.Effect.Kind {
		case catalog.RuneUnlockAutoClicker:
			st.AutoClicker.Unlocked = true
		case catalog.RuneUnlockAutoBuyer:
			st.AutoBuyer.Unlocked = true
		case catalog.RuneAutoClickerSpeed:
			speed += level
		}
	}
	if st.AutoClicker.Level < 1+speed {
		st.AutoClicker.Level = 1 + speed
	}
}

// ToggleAutoClicker flips the auto-clicker; a no-op while locked.
func (s *Store) ToggleAutoClicker(ctx context.Context, enabled bool) Snapshot {
	s.mu.Lock()
	if !s.state.AutoClicker.Unlocked {
		return s.unlockNoop()
	}
	current := s.state.Clone()
	s.mu.Unlock()

	if _, ok := s.confirm(ctx, ConfirmToggleAutoClicker, "", current); !ok {
		return s.Snapshot()
	}

	s.mu.Lock()
	if !s.state.AutoClicker.Unlocked {
		return s.unlockNoop()
	}
	s.state.AutoClicker.Enabled = enabled
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// ConfigureAutoBuyer merges a partial config; a no-op while locked.
// Unknown modes and spend percentages outside (0,100] are rejected.
func (s *Store) ConfigureAutoBuyer(ctx context.Context, patch AutoBuyerPatch) Snapshot {
	s.mu.Lock()
	if !s.state.AutoBuyer.Unlocked {
		return s.unlockNoop()
	}
	if patch.Mode != nil {
		switch *patch.Mode {
		case BuyCheapest, BuyMostEfficient, BuyTargetBuilding:
		default:
			return s.unlockNoop()
		}
	}
	if patch.MaxSpendPercent != nil && (*patch.MaxSpendPercent <= 0 || *patch.MaxSpendPercent > 100) {
		return s.unlockNoop()
	}
	current := s.state.Clone()
	s.mu.Unlock()

	if _, ok := s.confirm(ctx, ConfirmConfigureAutoBuyer, "", current); !ok {
		return s.Snapshot()
	}

	s.mu.Lock()
	if !s.state.AutoBuyer.Unlocked {
		return s.unlockNoop()
	}
	if patch.Enabled != nil {
		s.state.AutoBuyer.Enabled = *patch.Enabled
	}
	if patch.Mode != nil {
		s.state.AutoBuyer.Mode = *patch.Mode
	}
	if patch.TargetBuilding != nil {
		s.state.AutoBuyer.TargetBuilding = *patch.TargetBuilding
	}
	if patch.MaxSpendPercent != nil {
		s.state.AutoBuyer.MaxSpendPercent = *patch.MaxSpendPercent
	}
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// SpawnSurge picks a surge type by probability weight and opens its
// claim window. A surge whose window already passed counts as
// inactive and is replaced.
func (s *Store) SpawnSurge() Snapshot {
	s.mu.Lock()
	now := s.clock.Now()
	if s.surgeActiveLocked(now) || len(s.cat.SurgeTypes) == 0 {
		return s.unlockNoop()
	}
	picked := s.cat.SurgeTypes[0]
	draw := s.rng.Float64()
	cumulative := 0.0
	for _, st := range s.cat.SurgeTypes {
		cumulative += st.Weight
		if cumulative >= draw {
			picked = st
			break
		}
	}
	s.state.ActiveSurge = &ActiveSurge{
		Type:      picked.ID,
		ExpiresAt: now.Add(time.Duration(picked.ClaimWindowSecs) * time.Second),
	}
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

func (s *Store) surgeActiveLocked(now time.Time) bool {
	return s.state.ActiveSurge != nil && s.state.ActiveSurge.ExpiresAt.After(now)
}

// ClaimSurge resolves an active surge of the given type: an instant
// type credits mana, a timed type appends a boost. Exactly one of the
// two happens; an expired or mismatched surge is a no-op.
func (s *Store) ClaimSurge(ctx context.Context, typeID string) Snapshot {
	s.mu.Lock()
	now := s.clock.Now()
	if !s.surgeActiveLocked(now) || s.state.ActiveSurge.Type != typeID {
		return s.unlockNoop()
	}
	def, ok := s.cat.SurgeType(typeID)
	if !ok {
		return s.unlockNoop()
	}
	current := s.state.Clone()
	s.mu.Unlock()

	conf, ok := s.confirm(ctx, ConfirmClaimSurge, typeID, current)
	if !ok {
		return s.Snapshot()
	}

	s.mu.Lock()
	now = s.clock.Now()
	if !s.surgeActiveLocked(now) || s.state.ActiveSurge.Type != typeID {
		return s.unlockNoop()
	}
	s.state.ActiveSurge = nil

	switch def.Effect.Kind {
	case catalog.SurgeInstant:
		reward := s.rates.PerTick * InstantRewardSeconds
		if conf.Reward != nil {
			reward = *conf.Reward
		}
		s.state.Mana += reward
		s.state.TotalManaEarned += reward
	case catalog.SurgeTimed:
		s.pruneExpiredBoostsLocked(now)
		boost := ActiveBoost{
			ID:         uuid.NewString(),
			Surge:      def.ID,
			Scope:      def.Effect.Scope,
			Multiplier: def.Effect.Multiplier,
			ExpiresAt:  now.Add(time.Duration(def.Effect.DurationSecs) * time.Second),
		}
		if def.Effect.RandomTarget && len(s.cat.Buildings) > 0 {
			boost.Target = s.cat.Buildings[s.rng.Intn(len(s.cat.Buildings))].ID
		}
		s.state.ActiveBoosts = append(s.state.ActiveBoosts, boost)
	}
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// DismissSurge clears any active surge with no resource effect.
func (s *Store) DismissSurge() Snapshot {
	s.mu.Lock()
	if s.state.ActiveSurge == nil {
		return s.unlockNoop()
	}
	s.state.ActiveSurge = nil
	snap, subs := s.commitLocked()
	s.mu.Unlock()
	notify(subs, snap)
	return snap
}

// Expired boosts are only dropped here, when a claim appends a new
// one. In between they stay in the list and are filtered by readers.
func (s *Store) pruneExpiredBoostsLocked(now time.Time) {
	kept := s.state.ActiveBoosts[:0]
	for _, b := range s.state.ActiveBoosts {
		if b.ExpiresAt.After(now) {
			kept = append(kept, b)
		}
	}
	s.state.ActiveBoosts = kept
}

func (s *Store) confirm(ctx context.Context, kind ConfirmKind, id string, state SaveState) (Confirmation, bool) {
	if s.confirmer == nil {
		return Confirmation{}, true
	}
	conf, err := s.confirmer.Confirm(ctx, kind, id, state)
	if err != nil {
		s.logger.Printf("confirm %s failed: %v", kind, err)
		return Confirmation{}, false
	}
	return conf, true
}

// commitLocked recomputes rates, evaluates achievements, and returns
// the snapshot plus the subscriber list to notify after unlock.
func (s *Store) commitLocked() (Snapshot, []func(Snapshot)) {
	s.recomputeLocked()
	s.evaluateAchievementsLocked()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return snap, subs
}

func (s *Store) unlockNoop() Snapshot {
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap
}

func (s *Store) recomputeLocked() {
	s.rates = production.Compute(s.state.ProductionInput(), s.cat, s.clock.Now())
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{SaveState: s.state.Clone(), Rates: s.rates}
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
