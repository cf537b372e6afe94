package catalog

// Seed returns the built-in game catalog. A persistence backend serves
// this on first run and may replace it with its own data afterwards.
func Seed() Catalog {
	return Catalog{
		Buildings: []Building{
			{ID: "wisp", Name: "Mana Wisp", Description: "A faint mote that drips mana.", BaseCost: 10, BaseRate: 0.5},
			{ID: "apprentice", Name: "Apprentice", Description: "Chants a steady trickle.", BaseCost: 100, BaseRate: 4},
			{ID: "grove", Name: "Whispering Grove", Description: "Trees that hum with power.", BaseCost: 1_200, BaseRate: 25},
			{ID: "obelisk", Name: "Runed Obelisk", Description: "Carved stone, always warm.", BaseCost: 15_000, BaseRate: 140},
			{ID: "sanctum", Name: "Arcane Sanctum", Description: "A workshop of bound spirits.", BaseCost: 200_000, BaseRate: 900},
			{ID: "leyline", Name: "Leyline Tap", Description: "Drinks straight from the earth.", BaseCost: 3_000_000, BaseRate: 5_600},
			{ID: "rift", Name: "Astral Rift", Description: "A tear into somewhere brighter.", BaseCost: 45_000_000, BaseRate: 38_000},
			{ID: "throne", Name: "Mana Throne", Description: "Sit, and the world pours in.", BaseCost: 700_000_000, BaseRate: 260_000},
		},
		Upgrades: []Upgrade{
			{ID: "sturdy_finger", Name: "Sturdy Finger", Description: "Clicks hit twice as hard.", Kind: UpgradeClick, Bonus: 2, Cost: 150},
			{ID: "iron_finger", Name: "Iron Finger", Description: "Clicks hit twice as hard, again.", Kind: UpgradeClick, Bonus: 2, Cost: 4_000, RequiredTotalMana: 2_000},
			{ID: "channeling", Name: "Channeling", Description: "Each click also grants 1% of your passive rate.", Kind: UpgradeClickRate, Bonus: 0.01, Cost: 25_000},
			{ID: "deep_channeling", Name: "Deep Channeling", Description: "Clicks grant a further 4% of your passive rate.", Kind: UpgradeClickRate, Bonus: 0.04, Cost: 900_000, RequiredTotalMana: 500_000},
			{ID: "focusing_lens", Name: "Focusing Lens", Description: "All production +50%.", Kind: UpgradeGlobalRate, Bonus: 1.5, Cost: 60_000},
			{ID: "prism_array", Name: "Prism Array", Description: "All production doubled.", Kind: UpgradeGlobalRate, Bonus: 2, Cost: 2_500_000, RequiredTotalMana: 1_000_000},
			{ID: "wisp_swarm", Name: "Wisp Swarm", Description: "Mana Wisps work in pairs.", Kind: UpgradeBuilding, Bonus: 2, Cost: 1_000, Target: "wisp", RequiredBuilding: "wisp", RequiredCount: 10},
			{ID: "grove_song", Name: "Grove Song", Description: "Whispering Groves produce triple.", Kind: UpgradeBuilding, Bonus: 3, Cost: 50_000, Target: "grove", RequiredBuilding: "grove", RequiredCount: 10},
			{ID: "obelisk_choir", Name: "Obelisk Choir", Description: "Runed Obelisks resonate, doubling output.", Kind: UpgradeBuilding, Bonus: 2, Cost: 400_000, Target: "obelisk", RequiredBuilding: "obelisk", RequiredCount: 5},
			{ID: "sanctum_keys", Name: "Sanctum Keys", Description: "Arcane Sanctums produce double.", Kind: UpgradeBuilding, Bonus: 2, Cost: 6_000_000, Target: "sanctum", RequiredBuilding: "sanctum", RequiredCount: 5},
		},
		Achievements: []Achievement{
			{ID: "first_spark", Name: "First Spark", Description: "Earn 100 mana.", Condition: CondTotalMana, Value: 100},
			{ID: "torrent", Name: "Torrent", Description: "Earn 1,000,000 mana.", Condition: CondTotalMana, Value: 1_000_000},
			{ID: "steady_hum", Name: "Steady Hum", Description: "Reach 100 mana per second.", Condition: CondCurrentRate, Value: 100},
			{ID: "heavy_hand", Name: "Heavy Hand", Description: "Reach 50 mana per click.", Condition: CondCurrentClick, Value: 50},
			{ID: "landlord", Name: "Landlord", Description: "Own 50 buildings in total.", Condition: CondBuildingCount, Value: 50},
			{ID: "wisp_herder", Name: "Wisp Herder", Description: "Own 25 Mana Wisps.", Condition: CondTargetBuildingCount, Value: 25, TargetID: "wisp"},
			{ID: "collector", Name: "Collector", Description: "Own every kind of building.", Condition: CondUniqueBuildings, Value: 8},
			{ID: "tinkerer", Name: "Tinkerer", Description: "Own 5 upgrades.", Condition: CondUpgradeCount, Value: 5},
			{ID: "calloused", Name: "Calloused", Description: "Click 1,000 times.", Condition: CondClickCount, Value: 1_000},
		},
		SurgeTypes: []SurgeType{
			{ID: "golden_orb", Name: "Golden Orb", Color: "#FFD700", Weight: 0.40, ClaimWindowSecs: 12,
				Effect: SurgeEffect{Kind: SurgeTimed, Multiplier: 7, DurationSecs: 77, Scope: BoostGlobal}},
			{ID: "click_frenzy", Name: "Click Frenzy", Color: "#FF6B6B", Weight: 0.30, ClaimWindowSecs: 12,
				Effect: SurgeEffect{Kind: SurgeTimed, Multiplier: 10, DurationSecs: 30, Scope: BoostClick}},
			{ID: "mana_rain", Name: "Mana Rain", Color: "#4ECDC4", Weight: 0.20, ClaimWindowSecs: 10,
				Effect: SurgeEffect{Kind: SurgeInstant}},
			{ID: "building_boost", Name: "Building Boost", Color: "#A78BFA", Weight: 0.10, ClaimWindowSecs: 10,
				Effect: SurgeEffect{Kind: SurgeTimed, Multiplier: 5, DurationSecs: 120, Scope: BoostBuilding, RandomTarget: true}},
		},
		Talents: []Talent{
			// Path of the Hand: click power.
			{ID: "firm_grip", Name: "Firm Grip", Description: "Clicks +50%.", Path: PathHand, Tier: 1, EssenceCost: 5,
				Effect: TalentEffect{Kind: TalentClickMult, Value: 1.5}},
			{ID: "swift_strikes", Name: "Swift Strikes", Description: "Clicks doubled.", Path: PathHand, Tier: 2, EssenceCost: 15,
				Effect: TalentEffect{Kind: TalentClickMult, Value: 2}, Requires: []string{"firm_grip"}},
			{ID: "thunder_palm", Name: "Thunder Palm", Description: "Clicks tripled.", Path: PathHand, Tier: 3, EssenceCost: 40,
				Effect: TalentEffect{Kind: TalentClickMult, Value: 3}, Requires: []string{"swift_strikes"}},
			// Path of the Tower: idle play. These talents pay off through
			// click-rate conversion rather than a flat rate bonus.
			{ID: "patient_study", Name: "Patient Study", Description: "Clicks +25%.", Path: PathTower, Tier: 1, EssenceCost: 5,
				Effect: TalentEffect{Kind: TalentClickMult, Value: 1.25}},
			{ID: "tower_vigil", Name: "Tower Vigil", Description: "Clicks +75%.", Path: PathTower, Tier: 2, EssenceCost: 15,
				Effect: TalentEffect{Kind: TalentClickMult, Value: 1.75}, Requires: []string{"patient_study"}},
			// Path of Fortune: events and luck.
			{ID: "lucky_charm", Name: "Lucky Charm", Description: "Surges appear more often.", Path: PathFortune, Tier: 1, EssenceCost: 10,
				Effect: TalentEffect{Kind: TalentSurgeLuck, Value: 0.85}},
			{ID: "fortunes_favor", Name: "Fortune's Favor", Description: "Clicks +50%.", Path: PathFortune, Tier: 2, EssenceCost: 25,
				Effect: TalentEffect{Kind: TalentClickMult, Value: 1.5}, Requires: []string{"lucky_charm"}},
			// Ultimate: requires the top of every path.
			{ID: "archmage", Name: "Archmage", Description: "Clicks x5.", Path: PathUltimate, Tier: 1, EssenceCost: 150,
				Effect: TalentEffect{Kind: TalentClickMult, Value: 5},
				Requires: []string{"thunder_palm", "tower_vigil", "fortunes_favor"}},
		},
		Runes: []Rune{
			{ID: "rune_of_hands", Name: "Rune of Hands", Description: "Unlocks the auto-clicker.", Cost: 25, MaxLevel: 1,
				Effect: RuneEffect{Kind: RuneUnlockAutoClicker}},
			{ID: "rune_of_commerce", Name: "Rune of Commerce", Description: "Unlocks the auto-buyer.", Cost: 50, MaxLevel: 1, RequiredAscensions: 2,
				Effect: RuneEffect{Kind: RuneUnlockAutoBuyer}},
			{ID: "rune_of_events", Name: "Rune of Events", Description: "Surges appear more often.", Cost: 40, MaxLevel: 1,
				Effect: RuneEffect{Kind: RuneSurgeFrequency}},
			{ID: "rune_of_haste", Name: "Rune of Haste", Description: "The auto-clicker clicks once more per second, per level.", Cost: 75, MaxLevel: 4, RequiredAscensions: 1,
				Effect: RuneEffect{Kind: RuneAutoClickerSpeed}},
		},
	}
}
