package solve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/annealtsp/internal/tsp"
)

// Compare runs every solver concurrently on d and returns one Outcome per
// solver, in the order given. The matrix is shared read-only.
// A failed solver yields an Outcome with Err set; the joined errors are
// returned alongside the full slice.
func Compare(ctx context.Context, d *tsp.DistanceMatrix, solvers ...Solver) ([]Outcome, error) {
	if d == nil {
		return nil, &tsp.InputError{Field: "matrix", Reason: "cannot be nil"}
	}
	if len(solvers) == 0 {
		return nil, &tsp.InputError{Field: "solvers", Reason: "at least one is required"}
	}

	outcomes := make([]Outcome, len(solvers))
	errs := make([]error, len(solvers))

	var wg sync.WaitGroup
	for i, s := range solvers {
		wg.Add(1)
		go func(i int, s Solver) {
			defer wg.Done()
			out, err := Run(ctx, s, d)
			if out != nil {
				outcomes[i] = *out
			}
			outcomes[i].Solver = s.Name()
			if err != nil {
				outcomes[i].Err = err.Error()
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
			}
		}(i, s)
	}
	wg.Wait()

	return outcomes, errors.Join(errs...)
}

// Best returns the index of the shortest successful outcome, or -1.
func Best(outcomes []Outcome) int {
	best := -1
	for i, o := range outcomes {
		if o.Err != "" || o.Tour == nil {
			continue
		}
		if best < 0 || o.Length < outcomes[best].Length {
			best = i
		}
	}
	return best
}

// Gap returns the relative excess of length over reference, e.g. 0.05 for 5%.
func Gap(length, reference float64) float64 {
	if reference == 0 {
		if length == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (length - reference) / reference
}
