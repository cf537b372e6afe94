package telemetry

import "time"

type EventType string

const (
	EventBuildingBought      EventType = "building_bought"
	EventUpgradeBought       EventType = "upgrade_bought"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventSurgeSpawned        EventType = "surge_spawned"
	EventSurgeClaimed        EventType = "surge_claimed"
	EventAscended            EventType = "ascended"
	EventTalentBought        EventType = "talent_bought"
	EventRuneBought          EventType = "rune_bought"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
