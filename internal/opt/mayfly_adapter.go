package opt

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MinPopulation is the smallest population mayfly v0.1.0 accepts.
const MinPopulation = 20

// MayflyAdapter wraps the mayfly library to conform to the Optimizer interface.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly-backed optimizer. popSize values below
// MinPopulation are raised to it.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	if popSize < MinPopulation {
		popSize = MinPopulation
	}
	if seed == 0 {
		seed = 1
	}
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the mayfly optimization.
func (m *MayflyAdapter) Run(eval Objective, lower, upper []float64, dim int) ([]float64, float64, error) {
	if dim <= 0 {
		return nil, 0, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if len(lower) == 0 || len(upper) == 0 {
		return nil, 0, fmt.Errorf("bounds are required")
	}
	if m.maxIters <= 0 {
		return nil, 0, fmt.Errorf("max iterations must be positive, got %d", m.maxIters)
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = eval
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// mayfly takes scalar bounds; the first dimension's bounds apply to all.
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]

	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly optimize: %w", err)
	}

	slog.Debug("Mayfly optimization complete", "dim", dim, "iterations", m.maxIters, "cost", result.GlobalBest.Cost)
	return result.GlobalBest.Position, result.GlobalBest.Cost, nil
}
