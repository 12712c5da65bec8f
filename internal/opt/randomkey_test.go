package opt

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/annealtsp/internal/tsp"
)

func TestDecodeKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []float64
		want tsp.Tour
	}{
		{"sorted", []float64{0.1, 0.2, 0.3}, tsp.Tour{0, 1, 2}},
		{"reversed", []float64{0.9, 0.5, 0.1}, tsp.Tour{2, 1, 0}},
		{"mixed", []float64{0.4, 0.1, 0.8, 0.2}, tsp.Tour{1, 3, 0, 2}},
		{"ties keep index order", []float64{0.5, 0.5, 0.1}, tsp.Tour{2, 0, 1}},
		{"empty", nil, tsp.Tour{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeKeys(tt.keys)
			if !got.Equal(tt.want) {
				t.Errorf("DecodeKeys(%v) = %v, want %v", tt.keys, got, tt.want)
			}
		})
	}
}

func TestDecodeKeysAlwaysPermutation(t *testing.T) {
	keys := []float64{math.NaN(), 0.3, math.Inf(-1), 0.3, math.NaN(), 2}
	if err := DecodeKeys(keys).Validate(len(keys)); err != nil {
		t.Errorf("decoded tour is not a permutation: %v", err)
	}
}

func TestTourObjective(t *testing.T) {
	d, err := tsp.NewDistanceMatrix([][]float64{
		{0, 5, 9},
		{5, 0, 4},
		{9, 4, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	obj := TourObjective(d)
	if got := obj([]float64{0.7, 0.2, 0.1}); got != 18 {
		t.Errorf("objective = %f, want 18", got)
	}
}

func TestSolveTourOnSquare(t *testing.T) {
	d, err := tsp.EuclideanMatrix([]tsp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
	if err != nil {
		t.Fatal(err)
	}

	tour, length, err := SolveTour(NewMayfly(60, 20, 7), d)
	if err != nil {
		t.Fatalf("SolveTour failed: %v", err)
	}
	if err := tour.Validate(4); err != nil {
		t.Fatalf("invalid tour: %v", err)
	}
	if math.Abs(length-tour.Length(d)) > 1e-12 {
		t.Errorf("length %f does not match tour length %f", length, tour.Length(d))
	}
	if math.Abs(length-4) > 1e-9 {
		t.Errorf("expected perimeter 4, got %f", length)
	}
}

// countingOptimizer evaluates a fixed key vector evals times and calls hook
// before each evaluation.
type countingOptimizer struct {
	evals  int
	hook   func(i int)
	scores []float64
}

func (c *countingOptimizer) Run(eval Objective, lower, upper []float64, dim int) ([]float64, float64, error) {
	keys := make([]float64, dim)
	for i := range keys {
		keys[i] = float64(i)
	}
	for i := 0; i < c.evals; i++ {
		if c.hook != nil {
			c.hook(i)
		}
		c.scores = append(c.scores, eval(keys))
	}
	return keys, c.scores[len(c.scores)-1], nil
}

func TestSolveTourContextCancelledMidRun(t *testing.T) {
	d, err := tsp.EuclideanMatrix([]tsp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := &countingOptimizer{evals: 20, hook: func(i int) {
		if i == 5 {
			cancel()
		}
	}}

	_, _, err = SolveTourContext(ctx, o, d)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for i, s := range o.scores {
		if i < 5 && math.Abs(s-4) > 1e-9 {
			t.Errorf("evaluation %d before cancel = %f, want 4", i, s)
		}
		if i >= 5 && !math.IsInf(s, 1) {
			t.Errorf("evaluation %d after cancel = %f, want +Inf", i, s)
		}
	}
}

func TestSolveTourContextUncancelled(t *testing.T) {
	d, err := tsp.EuclideanMatrix([]tsp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
	if err != nil {
		t.Fatal(err)
	}
	tour, length, err := SolveTourContext(context.Background(), &countingOptimizer{evals: 3}, d)
	if err != nil {
		t.Fatal(err)
	}
	if !tour.Equal(tsp.Tour{0, 1, 2, 3}) || math.Abs(length-4) > 1e-9 {
		t.Errorf("got %v (%f)", tour, length)
	}
}
