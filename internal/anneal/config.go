package anneal

import (
	"fmt"
	"math"

	"github.com/cwbudde/annealtsp/internal/tsp"
)

// Defaults for a single annealing run.
const (
	DefaultIterations  = 10000
	DefaultInitialTemp = 100.0
	DefaultCooling     = 0.99
)

// Config parameterizes one annealing run.
type Config struct {
	// Iterations is the exact number of candidate evaluations. There is no early stopping.
	Iterations int

	// InitialTemp is the starting temperature T0 (> 0).
	InitialTemp float64

	// Cooling is the geometric factor η in (0,1) applied once per iteration.
	Cooling float64

	// Neighborhood generates candidate tours.
	Neighborhood tsp.Neighborhood

	// Seed feeds the random source when New is called without one. Zero maps
	// to a fixed default seed.
	Seed int64

	// InitialTour replaces the random starting permutation when set.
	InitialTour tsp.Tour

	// ProgressEvery is the number of iterations between Observer calls (0 = only at the end).
	ProgressEvery int

	// Observer, if set, receives progress snapshots from the running loop.
	// It runs on the annealing goroutine and must not block for long.
	Observer func(Progress)
}

// DefaultConfig returns the reference configuration: 10,000 iterations,
// T0 = 100, η = 0.99, segment reversal.
func DefaultConfig() Config {
	return Config{
		Iterations:   DefaultIterations,
		InitialTemp:  DefaultInitialTemp,
		Cooling:      DefaultCooling,
		Neighborhood: tsp.ReverseSegment,
	}
}

// Validate checks parameter ranges. It does not look at InitialTour, which can
// only be checked against a matrix.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return &tsp.InputError{Field: "iterations", Reason: fmt.Sprintf("must be positive, got %d", c.Iterations)}
	}
	if !(c.InitialTemp > 0) || math.IsInf(c.InitialTemp, 0) {
		return &tsp.InputError{Field: "initial temperature", Reason: fmt.Sprintf("must be positive and finite, got %g", c.InitialTemp)}
	}
	if !(c.Cooling > 0 && c.Cooling < 1) {
		return &tsp.InputError{Field: "cooling", Reason: fmt.Sprintf("must be in (0,1), got %g", c.Cooling)}
	}
	if c.Neighborhood == nil {
		return &tsp.InputError{Field: "neighborhood", Reason: "cannot be nil"}
	}
	if c.ProgressEvery < 0 {
		return &tsp.InputError{Field: "progress interval", Reason: "cannot be negative"}
	}
	return nil
}
