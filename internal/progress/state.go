package progress

import (
	"time"

	"manaforge/internal/catalog"
	"manaforge/internal/production"
)

type AutoClicker struct {
	Unlocked bool `json:"unlocked"`
	Enabled  bool `json:"enabled"`
	// Level is clicks per second.
	Level int `json:"level"`
}

type AutoBuyerMode string

const (
	BuyCheapest       AutoBuyerMode = "cheapest"
	BuyMostEfficient  AutoBuyerMode = "mostEfficient"
	BuyTargetBuilding AutoBuyerMode = "targetBuilding"
)

type AutoBuyer struct {
	Unlocked        bool          `json:"unlocked"`
	Enabled         bool          `json:"enabled"`
	Mode            AutoBuyerMode `json:"mode"`
	TargetBuilding  string        `json:"targetBuilding,omitempty"`
	MaxSpendPercent float64       `json:"maxSpendPercent"`
}

// AutoBuyerPatch is a partial config merge; nil fields are left as-is.
type AutoBuyerPatch struct {
	Enabled         *bool          `json:"enabled,omitempty"`
	Mode            *AutoBuyerMode `json:"mode,omitempty"`
	TargetBuilding  *string        `json:"targetBuilding,omitempty"`
	MaxSpendPercent *float64       `json:"maxSpendPercent,omitempty"`
}

// ActiveSurge is the single unclaimed spawned event, if any.
type ActiveSurge struct {
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ActiveBoost is a claimed timed multiplier. Expired entries linger in
// the list until lazily pruned; every reader filters by ExpiresAt.
type ActiveBoost struct {
	ID         string             `json:"id"`
	Surge      string             `json:"surge"`
	Scope      catalog.BoostScope `json:"scope"`
	Multiplier float64            `json:"multiplier"`
	Target     string             `json:"target,omitempty"`
	ExpiresAt  time.Time          `json:"expiresAt"`
}

// PurchaseMultiplier is the UI bulk-buy selection. MultiplierMax (0)
// means "as many as affordable". Session preference only, never saved.
type PurchaseMultiplier int

const MultiplierMax PurchaseMultiplier = 0

// SaveState is every per-player field the persistence collaborator
// stores. Round-trip save/load must be lossless for all of it.
type SaveState struct {
	Mana             float64 `json:"mana"`
	TotalManaEarned  float64 `json:"totalManaEarned"`
	BaseManaPerClick float64 `json:"baseManaPerClick"`

	Buildings    map[string]int `json:"buildings"`
	Upgrades     []string       `json:"upgrades"`
	Achievements []string       `json:"achievements"`
	ClickCount   int64          `json:"clickCount"`

	CurrentEssence     float64  `json:"currentEssence"`
	TotalEssenceEarned float64  `json:"totalEssenceEarned"`
	AscensionCount     int      `json:"ascensionCount"`
	Talents            []string `json:"talents"`
	// Runes is a multiset: a rune's level is how often its id appears.
	Runes []string `json:"runes"`

	AutoClicker AutoClicker `json:"autoClicker"`
	AutoBuyer   AutoBuyer   `json:"autoBuyer"`

	ActiveBoosts []ActiveBoost `json:"activeBoosts"`
	ActiveSurge  *ActiveSurge  `json:"activeSurge,omitempty"`

	LastUpdate time.Time `json:"lastUpdate"`
}

// Snapshot is a consistent, caller-owned view of the store: the
// persisted state plus the derived rates current at snapshot time.
type Snapshot struct {
	SaveState
	Rates production.Rates `json:"rates"`
}

// DefaultSaveState is the fresh-player baseline, also used to fill
// fields missing from an older save (forward-compatible merge).
func DefaultSaveState() SaveState {
	return SaveState{
		BaseManaPerClick: 1,
		Buildings:        map[string]int{},
		Upgrades:         []string{},
		Achievements:     []string{},
		Talents:          []string{},
		Runes:            []string{},
		ActiveBoosts:     []ActiveBoost{},
		AutoClicker:      AutoClicker{Level: 1},
		AutoBuyer:        AutoBuyer{Mode: BuyCheapest, MaxSpendPercent: 10},
	}
}

// Normalize fills nil collections and zero-value knobs so that a save
// written by an older schema behaves like a fresh default where fields
// are missing.
func (s *SaveState) Normalize() {
	if s.BaseManaPerClick <= 0 {
		s.BaseManaPerClick = 1
	}
	if s.Buildings == nil {
		s.Buildings = map[string]int{}
	}
	if s.Upgrades == nil {
		s.Upgrades = []string{}
	}
	if s.Achievements == nil {
		s.Achievements = []string{}
	}
	if s.Talents == nil {
		s.Talents = []string{}
	}
	if s.Runes == nil {
		s.Runes = []string{}
	}
	if s.ActiveBoosts == nil {
		s.ActiveBoosts = []ActiveBoost{}
	}
	if s.AutoClicker.Level <= 0 {
		s.AutoClicker.Level = 1
	}
	if s.AutoBuyer.Mode == "" {
		s.AutoBuyer.Mode = BuyCheapest
	}
	if s.AutoBuyer.MaxSpendPercent <= 0 {
		s.AutoBuyer.MaxSpendPercent = 10
	}
}

// Clone deep-copies the state so snapshots never alias store-owned
// maps and slices.
func (s SaveState) Clone() SaveState {
	out := s
	out.Buildings = make(map[string]int, len(s.Buildings))
	for id, n := range s.Buildings {
		out.Buildings[id] = n
	}
	out.Upgrades = append([]string(nil), s.Upgrades...)
	out.Achievements = append([]string(nil), s.Achievements...)
	out.Talents = append([]string(nil), s.Talents...)
	out.Runes = append([]string(nil), s.Runes...)
	out.ActiveBoosts = append([]ActiveBoost(nil), s.ActiveBoosts...)
	if s.ActiveSurge != nil {
		surge := *s.ActiveSurge
		out.ActiveSurge = &surge
	}
	return out
}

// RuneLevel counts occurrences of a rune id in the multiset.
func (s SaveState) RuneLevel(id string) int {
	n := 0
	for _, r := range s.Runes {
		if r == id {
			n++
		}
	}
	return n
}

// HasTalent reports whether the talent id is owned.
func (s SaveState) HasTalent(id string) bool {
	for _, t := range s.Talents {
		if t == id {
			return true
		}
	}
	return false
}

// HasUpgrade reports whether the upgrade id is owned.
func (s SaveState) HasUpgrade(id string) bool {
	for _, u := range s.Upgrades {
		if u == id {
			return true
		}
	}
	return false
}

// ProductionInput projects the state onto the rate computation's
// input.
func (s SaveState) ProductionInput() production.Input {
	return production.Input{
		BaseManaPerClick: s.BaseManaPerClick,
		Buildings:        s.Buildings,
		Upgrades:         s.Upgrades,
		Talents:          s.Talents,
		Boosts:           boostInputs(s.ActiveBoosts),
	}
}

func boostInputs(boosts []ActiveBoost) []production.Boost {
	out := make([]production.Boost, 0, len(boosts))
	for _, b := range boosts {
		out = append(out, production.Boost{
			Scope:      b.Scope,
			Multiplier: b.Multiplier,
			Target:     b.Target,
			ExpiresAt:  b.ExpiresAt,
		})
	}
	return out
}
