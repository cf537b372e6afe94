package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period               string            `json:"period"`
	EventCounts          map[EventType]int `json:"event_counts"`
	BuildingsBought      int               `json:"buildings_bought"`
	UpgradesBought       int               `json:"upgrades_bought"`
	SurgesSpawned        int               `json:"surges_spawned"`
	SurgesClaimed        int               `json:"surges_claimed"`
	SurgeClaimRate       float64           `json:"surge_claim_rate"`
	Ascensions           int               `json:"ascensions"`
	AchievementsUnlocked int               `json:"achievements_unlocked"`
	BuildingsByID        map[string]int    `json:"buildings_by_id"`
	SurgesByType         map[string]int    `json:"surges_by_type"`
}

// CalculateStats computes balance stats from events
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:        since.Format("2006-01-02"),
		EventCounts:   make(map[EventType]int),
		BuildingsByID: make(map[string]int),
		SurgesByType:  make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventBuildingBought:
			stats.BuildingsBought++
			if id, ok := metadata["building"].(string); ok {
				stats.BuildingsByID[id]++
			}
		case EventUpgradeBought:
			stats.UpgradesBought++
		case EventSurgeSpawned:
			stats.SurgesSpawned++
		case EventSurgeClaimed:
			stats.SurgesClaimed++
			if id, ok := metadata["type"].(string); ok {
				stats.SurgesByType[id]++
			}
		case EventAscended:
			stats.Ascensions++
		case EventAchievementUnlocked:
			stats.AchievementsUnlocked++
		}
	}

	if stats.SurgesSpawned > 0 {
		stats.SurgeClaimRate = float64(stats.SurgesClaimed) / float64(stats.SurgesSpawned)
	}

	return stats, nil
}
