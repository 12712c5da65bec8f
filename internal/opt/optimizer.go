package opt

// Objective is a cost function over a continuous vector. Lower is better.
type Objective func(x []float64) float64

// Optimizer defines a continuous, box-bounded minimizer.
type Optimizer interface {
	// Run minimizes eval over dim variables, each bounded by lower[i] and upper[i].
	// It returns the best vector found and its cost.
	Run(eval Objective, lower, upper []float64, dim int) ([]float64, float64, error)
}
