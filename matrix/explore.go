package matrix

import "math"

// ExplorationRate maps a mood onto the probability of picking a random
// candidate: base*(1+|mood|), capped at 1. Strong moods of either sign make
// the NPC less predictable.
func ExplorationRate(base float64, mood Mood) float64 {
	eps := base * (1 + math.Abs(float64(mood)))
	if eps > 1 {
		return 1
	}
	if eps < 0 {
		return 0
	}
	return eps
}
