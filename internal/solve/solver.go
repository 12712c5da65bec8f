// Package solve runs tour solvers behind a common interface and compares them
// on the same instance.
package solve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/annealtsp/internal/anneal"
	"github.com/cwbudde/annealtsp/internal/opt"
	"github.com/cwbudde/annealtsp/internal/tsp"
)

// Outcome holds the output of a single solver run
type Outcome struct {
	Solver        string        `json:"solver"`
	Tour          tsp.Tour      `json:"tour,omitempty"`
	Length        float64       `json:"length"`
	InitialLength float64       `json:"initialLength"`
	Iterations    int           `json:"iterations"`
	Elapsed       time.Duration `json:"elapsed"`
	Err           string        `json:"error,omitempty"`
}

// Solver produces a tour for a distance matrix.
type Solver interface {
	Name() string
	Solve(ctx context.Context, d *tsp.DistanceMatrix) (*Outcome, error)
}

// AnnealSolver runs simulated annealing with a named neighborhood rule.
type AnnealSolver struct {
	rule string
	cfg  anneal.Config
}

// NewAnnealSolver builds an annealing solver. cfg.Neighborhood is replaced by
// the rule registered under rule.
func NewAnnealSolver(rule string, cfg anneal.Config) (*AnnealSolver, error) {
	nb, err := tsp.LookupNeighborhood(rule)
	if err != nil {
		return nil, err
	}
	cfg.Neighborhood = nb
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AnnealSolver{rule: rule, cfg: cfg}, nil
}

func (s *AnnealSolver) Name() string { return "anneal/" + s.rule }

func (s *AnnealSolver) Solve(ctx context.Context, d *tsp.DistanceMatrix) (*Outcome, error) {
	res, err := anneal.Solve(ctx, d, s.cfg)
	if res == nil {
		return nil, err
	}
	return &Outcome{
		Solver:        s.Name(),
		Tour:          res.Tour,
		Length:        res.Length,
		InitialLength: res.InitialLength,
		Iterations:    res.Iterations,
		Elapsed:       res.Elapsed,
	}, err
}

// RandomKeySolver searches the random-key encoding of a tour with mayfly.
// Cancellation makes the remaining evaluations free and returns ctx.Err().
type RandomKeySolver struct {
	Iterations int
	Population int
	Seed       int64
}

func (s *RandomKeySolver) Name() string { return "mayfly" }

func (s *RandomKeySolver) Solve(ctx context.Context, d *tsp.DistanceMatrix) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &tsp.InputError{Field: "matrix", Reason: "cannot be nil"}
	}

	start := time.Now()
	initial := tsp.RandomTour(d.Size(), tsp.NewRand(s.Seed)).Length(d)

	tour, length, err := opt.SolveTourContext(ctx, opt.NewMayfly(s.Iterations, s.Population, s.Seed), d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return &Outcome{
		Solver:        s.Name(),
		Tour:          tour,
		Length:        length,
		InitialLength: initial,
		Iterations:    s.Iterations,
		Elapsed:       time.Since(start),
	}, nil
}

// Run executes one solver and logs its result.
func Run(ctx context.Context, s Solver, d *tsp.DistanceMatrix) (*Outcome, error) {
	slog.Info("Starting solver", "solver", s.Name(), "cities", d.Size())

	out, err := s.Solve(ctx, d)
	if err != nil {
		slog.Warn("Solver stopped", "solver", s.Name(), "error", err)
		return out, err
	}

	slog.Info("Solver complete", "solver", s.Name(), "initial_length", out.InitialLength, "length", out.Length, "elapsed", out.Elapsed)
	return out, nil
}
