package anneal

import (
	"math"
	"math/rand"
)

// Temperature is the closed form of the geometric schedule: T0·η^k.
func Temperature(t0, eta float64, k int) float64 {
	return t0 * math.Pow(eta, float64(k))
}

// Accept applies the Metropolis criterion. Improvements are always taken;
// otherwise the move is taken with probability exp(-delta/temp).
// A random number is drawn only for non-improving moves at positive temperature.
func Accept(delta, temp float64, rng *rand.Rand) bool {
	if delta < 0 {
		return true
	}
	if temp <= 0 {
		return false
	}
	return rng.Float64() < math.Exp(-delta/temp)
}
