package opt

import (
	"context"
	"math"
	"sort"

	"github.com/cwbudde/annealtsp/internal/tsp"
)

// Keys are drawn from [KeyLower, KeyUpper]; only their relative order matters.
const (
	KeyLower = 0.0
	KeyUpper = 1.0
)

// DecodeKeys maps a random-key vector to a tour: cities are visited in
// ascending key order. Ties keep index order.
func DecodeKeys(keys []float64) tsp.Tour {
	t := make(tsp.Tour, len(keys))
	for i := range t {
		t[i] = i
	}
	sort.SliceStable(t, func(a, b int) bool {
		return keys[t[a]] < keys[t[b]]
	})
	return t
}

// TourObjective scores a key vector by the length of its decoded tour.
func TourObjective(d *tsp.DistanceMatrix) Objective {
	return func(keys []float64) float64 {
		return DecodeKeys(keys).Length(d)
	}
}

// KeyBounds returns per-dimension bounds for an n-city random-key search.
func KeyBounds(n int) (lower, upper []float64) {
	lower = make([]float64, n)
	upper = make([]float64, n)
	for i := 0; i < n; i++ {
		lower[i] = KeyLower
		upper[i] = KeyUpper
	}
	return lower, upper
}

// SolveTour runs o over the random-key encoding of d and returns the decoded
// best tour with its exact length.
func SolveTour(o Optimizer, d *tsp.DistanceMatrix) (tsp.Tour, float64, error) {
	return SolveTourContext(context.Background(), o, d)
}

// SolveTourContext is SolveTour with cancellation. Optimizers cannot be
// interrupted, so once ctx is done every evaluation scores +Inf without
// decoding and the remaining iterations drain quickly; ctx.Err() is returned.
func SolveTourContext(ctx context.Context, o Optimizer, d *tsp.DistanceMatrix) (tsp.Tour, float64, error) {
	n := d.Size()
	lower, upper := KeyBounds(n)
	score := TourObjective(d)
	eval := func(keys []float64) float64 {
		if ctx.Err() != nil {
			return math.Inf(1)
		}
		return score(keys)
	}

	keys, _, err := o.Run(eval, lower, upper, n)
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err != nil {
		return nil, 0, err
	}
	tour := DecodeKeys(keys)
	return tour, tour.Length(d), nil
}
