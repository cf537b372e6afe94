package telemetry

import (
	"sync"

	"manaforge/internal/progress"
)

// Tracker derives telemetry events by diffing successive snapshots of
// the progression store. It never blocks gameplay: recording failures
// are dropped.
type Tracker struct {
	repo Repository

	mu   sync.Mutex
	prev *progress.Snapshot
}

func NewTracker(repo Repository) *Tracker {
	return &Tracker{repo: repo}
}

// Attach subscribes to the store; the returned func detaches.
func (t *Tracker) Attach(store *progress.Store) func() {
	return store.Subscribe(t.Observe)
}

func (t *Tracker) Observe(snap progress.Snapshot) {
	t.mu.Lock()
	prev := t.prev
	t.prev = &snap
	t.mu.Unlock()
	if prev == nil {
		return
	}

	for id, n := range snap.Buildings {
		if n > prev.Buildings[id] {
			_ = t.repo.RecordEvent(EventBuildingBought, EventMetadata{
				"building": id,
				"count":    n - prev.Buildings[id],
			})
		}
	}
	for _, id := range newEntries(prev.Upgrades, snap.Upgrades) {
		_ = t.repo.RecordEvent(EventUpgradeBought, EventMetadata{"upgrade": id})
	}
	for _, id := range newEntries(prev.Achievements, snap.Achievements) {
		_ = t.repo.RecordEvent(EventAchievementUnlocked, EventMetadata{"achievement": id})
	}
	for _, id := range newEntries(prev.Talents, snap.Talents) {
		_ = t.repo.RecordEvent(EventTalentBought, EventMetadata{"talent": id})
	}
	if len(snap.Runes) > len(prev.Runes) {
		_ = t.repo.RecordEvent(EventRuneBought, EventMetadata{"rune": snap.Runes[len(snap.Runes)-1]})
	}
	if snap.AscensionCount > prev.AscensionCount {
		_ = t.repo.RecordEvent(EventAscended, EventMetadata{
			"ascension_count": snap.AscensionCount,
			"total_essence":   snap.TotalEssenceEarned,
		})
	}
	if snap.ActiveSurge != nil && (prev.ActiveSurge == nil || prev.ActiveSurge.Type != snap.ActiveSurge.Type) {
		_ = t.repo.RecordEvent(EventSurgeSpawned, EventMetadata{"type": snap.ActiveSurge.Type})
	}
	// A vanished surge plus a reward or boost means a claim; a plain
	// vanish is a dismissal or expiry and records nothing.
	if prev.ActiveSurge != nil && snap.ActiveSurge == nil {
		if len(snap.ActiveBoosts) > len(prev.ActiveBoosts) || snap.TotalManaEarned > prev.TotalManaEarned {
			_ = t.repo.RecordEvent(EventSurgeClaimed, EventMetadata{"type": prev.ActiveSurge.Type})
		}
	}
}

// newEntries returns values present in next but not in before.
func newEntries(before, next []string) []string {
	seen := make(map[string]bool, len(before))
	for _, id := range before {
		seen[id] = true
	}
	var out []string
	for _, id := range next {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}
