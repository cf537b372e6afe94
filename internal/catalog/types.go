package catalog

// Building is a static, server-provided definition of a purchasable
// mana producer. Player-owned counts live in the progression state,
// never here.
type Building struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BaseCost    float64 `json:"baseCost"`
	BaseRate    float64 `json:"baseRate"`
}

type UpgradeKind string

const (
	// UpgradeClick multiplies mana gained per manual click.
	UpgradeClick UpgradeKind = "click"
	// UpgradeClickRate adds a fraction of the passive rate to each click.
	UpgradeClickRate UpgradeKind = "click_rate"
	// UpgradeGlobalRate multiplies all passive production.
	UpgradeGlobalRate UpgradeKind = "global_rate"
	// UpgradeBuilding multiplies production of one target building.
	UpgradeBuilding UpgradeKind = "building"
)

// Upgrade is a one-time purchase. Kind decides which field of the
// production pipeline Bonus is applied to; Target is only meaningful
// for UpgradeBuilding.
type Upgrade struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Kind        UpgradeKind `json:"kind"`
	Bonus       float64     `json:"bonus"`
	Cost        float64     `json:"cost"`
	Target      string      `json:"target,omitempty"`

	// Unlock requirement. Zero values mean "always visible".
	RequiredBuilding  string  `json:"requiredBuilding,omitempty"`
	RequiredCount     int     `json:"requiredCount,omitempty"`
	RequiredTotalMana float64 `json:"requiredTotalMana,omitempty"`
}

type AchievementCondition string

const (
	CondTotalMana           AchievementCondition = "totalMana"
	CondCurrentRate         AchievementCondition = "currentRate"
	CondCurrentClick        AchievementCondition = "currentClick"
	CondBuildingCount       AchievementCondition = "buildingCount"
	CondTargetBuildingCount AchievementCondition = "targetBuildingCount"
	CondUniqueBuildings     AchievementCondition = "uniqueBuildings"
	CondUpgradeCount        AchievementCondition = "upgradeCount"
	CondClickCount          AchievementCondition = "clickCount"
)

type Achievement struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Condition   AchievementCondition `json:"condition"`
	Value       float64              `json:"value"`
	TargetID    string               `json:"targetId,omitempty"`
}

// BoostScope says what a timed multiplier applies to.
type BoostScope string

const (
	BoostGlobal   BoostScope = "global"
	BoostClick    BoostScope = "click"
	BoostBuilding BoostScope = "building"
)

type SurgeEffectKind string

const (
	// SurgeInstant grants rate-per-tick times a fixed seconds-equivalent
	// immediately on claim.
	SurgeInstant SurgeEffectKind = "instant"
	// SurgeTimed appends a timed multiplier boost on claim.
	SurgeTimed SurgeEffectKind = "timed"
)

// SurgeEffect is a tagged union: Multiplier, DurationSecs, Scope and
// RandomTarget are only meaningful for SurgeTimed.
type SurgeEffect struct {
	Kind         SurgeEffectKind `json:"kind"`
	Multiplier   float64         `json:"multiplier,omitempty"`
	DurationSecs int             `json:"durationSecs,omitempty"`
	Scope        BoostScope      `json:"scope,omitempty"`
	RandomTarget bool            `json:"randomTarget,omitempty"`
}

// SurgeType describes one kind of transient bonus event.
type SurgeType struct {
	ID string `json:"id"`
	// Weight is the spawn probability weight; the spawner walks types
	// accumulating weights against a uniform draw.
	Weight float64 `json:"weight"`
	// ClaimWindowSecs is how long a spawned surge waits to be claimed.
	ClaimWindowSecs int         `json:"claimWindowSecs"`
	Effect          SurgeEffect `json:"effect"`
	Name            string      `json:"name"`
	Color           string      `json:"color"`
}

type TalentPath string

const (
	PathHand     TalentPath = "hand"
	PathTower    TalentPath = "tower"
	PathFortune  TalentPath = "fortune"
	PathUltimate TalentPath = "ultimate"
)

type TalentEffectKind string

const (
	// TalentClickMult multiplies mana per click in the production model.
	TalentClickMult TalentEffectKind = "click_mult"
	// TalentSurgeLuck shortens the surge spawn delay; it has no
	// production impact.
	TalentSurgeLuck TalentEffectKind = "surge_luck"
)

type TalentEffect struct {
	Kind  TalentEffectKind `json:"kind"`
	Value float64          `json:"value,omitempty"`
}

type Talent struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Path        TalentPath   `json:"path"`
	Tier        int          `json:"tier"`
	EssenceCost float64      `json:"essenceCost"`
	Effect      TalentEffect `json:"effect"`
	// Requires lists talent ids that must ALL be owned first.
	Requires []string `json:"requires,omitempty"`
}

type RuneEffectKind string

const (
	RuneUnlockAutoClicker RuneEffectKind = "unlock_autoclicker"
	RuneUnlockAutoBuyer   RuneEffectKind = "unlock_autobuyer"
	// RuneSurgeFrequency shortens the surge spawn delay per the
	// scheduler's rune factor.
	RuneSurgeFrequency RuneEffectKind = "surge_frequency"
	// RuneAutoClickerSpeed raises the auto-clicker level by one per
	// rune level (level = clicks per second).
	RuneAutoClickerSpeed RuneEffectKind = "autoclicker_speed"
)

type RuneEffect struct {
	Kind RuneEffectKind `json:"kind"`
}

// Rune is a repeatable essence purchase; level = times bought, capped
// at MaxLevel.
type Rune struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Cost               float64    `json:"cost"`
	MaxLevel           int        `json:"maxLevel"`
	RequiredAscensions int        `json:"requiredAscensions,omitempty"`
	Effect             RuneEffect `json:"effect"`
}
