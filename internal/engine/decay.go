package engine

import "math"

// Decay computes the exponential retention factor rate^ageSeconds.
//
// The retention rate is a per-second survival probability in [0, 1]. At the
// reference rate 0.99999/s an episodic memory is effectively gone after a
// week (0.99999^604800 ≈ 0.0023) while a fresh one keeps its full weight.
// Only the Episodic and Exploratory context layers decay; everything else
// holds a constant 1.0.
func Decay(rate float64, ageSeconds float64) float64 {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	if ageSeconds <= 0 {
		return 1.0
	}
	return math.Pow(rate, ageSeconds)
}
