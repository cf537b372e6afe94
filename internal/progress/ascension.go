package progress

import "math"

// DefaultAscensionThreshold gates ascension eligibility on lifetime
// mana earned.
const DefaultAscensionThreshold = 1_000_000

// TalentRefundFraction is the locally-predicted share of cumulative
// talent spend returned by a reset. The persistence collaborator's
// figure wins when it differs.
const TalentRefundFraction = 0.75

// EssenceGain is the essence granted for ascending with the given
// lifetime mana. The formula is floor(log10(totalEarned)*10 - 50),
// clamped to zero below the threshold; it is monotonic in totalEarned.
func EssenceGain(totalManaEarned, threshold float64) float64 {
	if threshold <= 0 {
		threshold = DefaultAscensionThreshold
	}
	if totalManaEarned < threshold {
		return 0
	}
	gain := math.Floor(math.Log10(totalManaEarned)*10 - 50)
	if gain < 0 {
		return 0
	}
	return gain
}

// ApplyAscension returns the post-ascension state: run progress reset,
// permanent progression preserved, essence credited. Lifetime mana is
// kept, it gates future ascensions and is never reset. Both the local
// prediction and the server-side authority use this.
func ApplyAscension(s SaveState, gain float64) SaveState {
	next := DefaultSaveState()
	next.TotalManaEarned = s.TotalManaEarned
	next.Achievements = append([]string(nil), s.Achievements...)
	next.Talents = append([]string(nil), s.Talents...)
	next.Runes = append([]string(nil), s.Runes...)
	next.AutoClicker = s.AutoClicker
	next.AutoBuyer = s.AutoBuyer
	next.CurrentEssence = s.CurrentEssence + gain
	next.TotalEssenceEarned = s.TotalEssenceEarned + gain
	next.AscensionCount = s.AscensionCount + 1
	return next
}
