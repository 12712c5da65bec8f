package tsp

import (
	"fmt"
	"math/rand"
)

// defaultSeed replaces a zero seed so that the zero value still gives a
// reproducible stream.
const defaultSeed int64 = 1

// Tour is a closed cycle over cities 0..n-1. The edge from the last city back
// to the first is implicit.
type Tour []int

// Clone returns an independent copy of t.
func (t Tour) Clone() Tour {
	if t == nil {
		return nil
	}
	out := make(Tour, len(t))
	copy(out, t)
	return out
}

// Validate checks that t is a permutation of {0..n-1}.
func (t Tour) Validate(n int) error {
	if len(t) != n {
		return invalid("tour", fmt.Sprintf("has %d cities, want %d", len(t), n))
	}
	seen := make([]bool, n)
	for pos, city := range t {
		if city < 0 || city >= n {
			return invalid("tour", fmt.Sprintf("city %d at position %d is out of range", city, pos))
		}
		if seen[city] {
			return invalid("tour", fmt.Sprintf("city %d appears twice", city))
		}
		seen[city] = true
	}
	return nil
}

// Length returns the total cyclic distance of t, including the wraparound
// edge from the last city back to the first.
func (t Tour) Length(d *DistanceMatrix) float64 {
	n := len(t)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n-1; i++ {
		sum += d.At(t[i], t[i+1])
	}
	sum += d.At(t[n-1], t[0])
	return sum
}

// Equal reports whether t and other visit the same cities in the same order.
func (t Tour) Equal(other Tour) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// NewRand returns a deterministic random source. A zero seed maps to a fixed
// default seed.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}

// RandomTour returns a uniformly random permutation of 0..n-1 drawn from rng
// with a Fisher–Yates shuffle.
func RandomTour(n int, rng *rand.Rand) Tour {
	t := make(Tour, n)
	for i := range t {
		t[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		t[i], t[j] = t[j], t[i]
	}
	return t
}
