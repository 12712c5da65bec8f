package tsp

import (
	"fmt"
	"math/rand"
	"sort"
)

// Neighborhood produces one candidate tour from a tour by a local perturbation.
// Implementations must not modify t and must return a tour of the same length.
type Neighborhood interface {
	Propose(t Tour, rng *rand.Rand) Tour
}

// NeighborhoodFunc adapts an ordinary function to the Neighborhood interface.
type NeighborhoodFunc func(t Tour, rng *rand.Rand) Tour

// Propose calls f(t, rng).
func (f NeighborhoodFunc) Propose(t Tour, rng *rand.Rand) Tour {
	return f(t, rng)
}

// Neighborhood selector names.
const (
	RuleReverse = "reverse"
	RuleSwap    = "swap"
)

var (
	// ReverseSegment picks two distinct positions i<j uniformly and reverses
	// positions i..j-1. Adjacent picks leave the tour unchanged and the last
	// position never moves.
	ReverseSegment Neighborhood = NeighborhoodFunc(func(t Tour, rng *rand.Rand) Tour {
		i, j := distinctPositions(len(t), rng)
		if i > j {
			i, j = j, i
		}
		return ReverseBetween(t, i, j)
	})

	// Swap picks two distinct positions uniformly and exchanges their cities.
	Swap Neighborhood = NeighborhoodFunc(func(t Tour, rng *rand.Rand) Tour {
		if len(t) < 2 {
			return t.Clone()
		}
		i, j := distinctPositions(len(t), rng)
		return SwapAt(t, i, j)
	})
)

var neighborhoods = map[string]Neighborhood{
	RuleReverse: ReverseSegment,
	RuleSwap:    Swap,
}

// LookupNeighborhood returns the neighborhood registered under name.
func LookupNeighborhood(name string) (Neighborhood, error) {
	nb, ok := neighborhoods[name]
	if !ok {
		return nil, invalid("neighborhood", fmt.Sprintf("unknown rule %q", name))
	}
	return nb, nil
}

// NeighborhoodNames lists the registered selector names in sorted order.
func NeighborhoodNames() []string {
	names := make([]string, 0, len(neighborhoods))
	for name := range neighborhoods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReverseBetween returns a copy of t with the half-open range [i, j) reversed.
// Indices are swapped if i > j.
func ReverseBetween(t Tour, i, j int) Tour {
	if i > j {
		i, j = j, i
	}
	out := t.Clone()
	j--
	for i < j {
		out[i], out[j] = out[j], out[i]
		i++
		j--
	}
	return out
}

// SwapAt returns a copy of t with the cities at positions i and j exchanged.
func SwapAt(t Tour, i, j int) Tour {
	out := t.Clone()
	out[i], out[j] = out[j], out[i]
	return out
}

// distinctPositions draws two different positions in [0,n) without replacement.
// For n < 2 both positions are 0.
func distinctPositions(n int, rng *rand.Rand) (int, int) {
	if n < 2 {
		return 0, 0
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}
