package progress

import "manaforge/internal/catalog"

// evaluateAchievementsLocked appends any newly satisfied achievement
// ids. Unlocks are permanent; ascension never removes them.
func (s *Store) evaluateAchievementsLocked() {
	if len(s.cat.Achievements) == 0 {
		return
	}
	owned := make(map[string]bool, len(s.state.Achievements))
	for _, id := range s.state.Achievements {
		owned[id] = true
	}
	for _, a := range s.cat.Achievements {
		if owned[a.ID] {
			continue
		}
		if s.achievementMetLocked(a) {
			s.state.Achievements = append(s.state.Achievements, a.ID)
		}
	}
}

func (s *Store) achievementMetLocked(a catalog.Achievement) bool {
	switch a.Condition {
	case catalog.CondTotalMana:
		return s.state.TotalManaEarned >= a.Value
	case catalog.CondCurrentRate:
		return s.rates.PerTick >= a.Value
	case catalog.CondCurrentClick:
		return s.rates.PerAction >= a.Value
	case catalog.CondBuildingCount:
		total := 0
		for _, n := range s.state.Buildings {
			total += n
		}
		return float64(total) >= a.Value
	case catalog.CondTargetBuildingCount:
		return float64(s.state.Buildings[a.TargetID]) >= a.Value
	case catalog.CondUniqueBuildings:
		unique := 0
		for _, n := range s.state.Buildings {
			if n > 0 {
				unique++
			}
		}
		return float64(unique) >= a.Value
	case catalog.CondUpgradeCount:
		return float64(len(s.state.Upgrades)) >= a.Value
	case catalog.CondClickCount:
		return float64(s.state.ClickCount) >= a.Value
	}
	return false
}
