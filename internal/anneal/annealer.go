// Package anneal implements simulated annealing over closed tours.
//
// A run starts from a random permutation, proposes one candidate per iteration
// with a pluggable neighborhood rule, accepts it by the Metropolis criterion
// and cools the temperature geometrically. The best tour seen is returned.
//
// The best tour is compared against every candidate, including candidates the
// Metropolis step rejected, so best can hold a tour the walk never adopted.
package anneal

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cwbudde/annealtsp/internal/tsp"
)

// Progress is a snapshot of a running optimization.
type Progress struct {
	Iteration     int     `json:"iteration"`
	Temperature   float64 `json:"temperature"`
	CurrentLength float64 `json:"currentLength"`
	BestLength    float64 `json:"bestLength"`
	Accepted      int     `json:"accepted"`
}

// Result holds the output of an annealing run. Improvements counts the
// candidates that set a new best.
type Result struct {
	Tour             tsp.Tour
	Length           float64
	InitialLength    float64
	Iterations       int
	FinalTemperature float64
	Accepted         int
	Improvements     int
	Elapsed          time.Duration
}

// state is owned by exactly one run. current and best may alias the same
// slice; neighborhoods never mutate their input, so that is safe.
type state struct {
	current    tsp.Tour
	currentLen float64
	best       tsp.Tour
	bestLen    float64
	temp       float64
}

// Annealer runs simulated annealing with a fixed configuration.
// It owns its random source and is not safe for concurrent use; create one
// Annealer per goroutine.
type Annealer struct {
	cfg Config
	rng *rand.Rand
}

// New validates cfg and returns an Annealer drawing from rng.
// If rng is nil a source seeded from cfg.Seed is created.
func New(cfg Config, rng *rand.Rand) (*Annealer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = tsp.NewRand(cfg.Seed)
	}
	return &Annealer{cfg: cfg, rng: rng}, nil
}

// Config returns the configuration the Annealer was built with.
func (a *Annealer) Config() Config {
	return a.cfg
}

// Run optimizes a tour over dist. dist is only read.
//
// The context is checked once per iteration. On cancellation Run returns the
// best result so far together with the context error.
func (a *Annealer) Run(ctx context.Context, dist *tsp.DistanceMatrix) (*Result, error) {
	if dist == nil {
		return nil, &tsp.InputError{Field: "matrix", Reason: "cannot be nil"}
	}
	n := dist.Size()
	if n < 2 {
		return nil, &tsp.InputError{Field: "matrix", Reason: "needs at least 2 cities"}
	}

	var start tsp.Tour
	if a.cfg.InitialTour != nil {
		if err := a.cfg.InitialTour.Validate(n); err != nil {
			return nil, err
		}
		start = a.cfg.InitialTour.Clone()
	} else {
		start = tsp.RandomTour(n, a.rng)
	}

	began := time.Now()
	startLen := start.Length(dist)
	st := &state{
		current:    start,
		currentLen: startLen,
		best:       start,
		bestLen:    startLen,
		temp:       a.cfg.InitialTemp,
	}
	res := &Result{InitialLength: startLen}

	slog.Debug("Annealing started", "cities", n, "iterations", a.cfg.Iterations, "initial_length", startLen)

	for k := 0; k < a.cfg.Iterations; k++ {
		if err := ctx.Err(); err != nil {
			a.finish(st, res, k, began)
			return res, err
		}

		cand := a.cfg.Neighborhood.Propose(st.current, a.rng)
		candLen := cand.Length(dist)

		if Accept(candLen-st.currentLen, st.temp, a.rng) {
			st.current = cand
			st.currentLen = candLen
			res.Accepted++
		}

		if candLen < st.bestLen {
			st.best = cand
			st.bestLen = candLen
			res.Improvements++
		}

		st.temp *= a.cfg.Cooling

		if a.cfg.Observer != nil && a.cfg.ProgressEvery > 0 && (k+1)%a.cfg.ProgressEvery == 0 {
			a.cfg.Observer(a.snapshot(st, res, k+1))
		}
	}

	if err := st.best.Validate(n); err != nil {
		return nil, &tsp.InputError{Field: "neighborhood", Reason: "produced an invalid tour: " + err.Error()}
	}

	a.finish(st, res, a.cfg.Iterations, began)

	slog.Debug("Annealing complete", "best_length", res.Length, "accepted", res.Accepted, "elapsed", res.Elapsed)
	return res, nil
}

// finish copies the final state into res and emits the closing progress
// snapshot unless the loop already reported this iteration.
func (a *Annealer) finish(st *state, res *Result, iterations int, began time.Time) {
	res.Tour = st.best.Clone()
	res.Length = st.bestLen
	res.Iterations = iterations
	res.FinalTemperature = st.temp
	res.Elapsed = time.Since(began)

	if a.cfg.Observer == nil {
		return
	}
	if a.cfg.ProgressEvery > 0 && iterations > 0 && iterations%a.cfg.ProgressEvery == 0 {
		return
	}
	a.cfg.Observer(a.snapshot(st, res, iterations))
}

func (a *Annealer) snapshot(st *state, res *Result, iteration int) Progress {
	return Progress{
		Iteration:     iteration,
		Temperature:   st.temp,
		CurrentLength: st.currentLen,
		BestLength:    st.bestLen,
		Accepted:      res.Accepted,
	}
}

// Solve is a convenience wrapper: build an Annealer from cfg and run it once.
func Solve(ctx context.Context, dist *tsp.DistanceMatrix, cfg Config) (*Result, error) {
	a, err := New(cfg, nil)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx, dist)
}
