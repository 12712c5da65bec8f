package tsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// symmetryTol is the largest |a_ij - a_ji| accepted as symmetric.
const symmetryTol = 1e-9

// Point is a city location in the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceMatrix is an immutable n×n symmetric matrix of non-negative distances.
// It is safe for concurrent reads, so independent optimizer runs may share one.
type DistanceMatrix struct {
	sym *mat.SymDense
	n   int
}

// NewDistanceMatrix validates rows and copies them into a DistanceMatrix.
// The rows must form a square, symmetric, finite, non-negative matrix with n >= 2.
func NewDistanceMatrix(rows [][]float64) (*DistanceMatrix, error) {
	n := len(rows)
	if n < 2 {
		return nil, invalid("matrix", fmt.Sprintf("needs at least 2 cities, got %d", n))
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, invalid("matrix", fmt.Sprintf("row %d has %d columns, want %d", i, len(row), n))
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := rows[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalid("matrix", fmt.Sprintf("entry (%d,%d) is not finite", i, j))
			}
			if v < 0 {
				return nil, invalid("matrix", fmt.Sprintf("entry (%d,%d) is negative", i, j))
			}
			if j > i && math.Abs(v-rows[j][i]) > symmetryTol {
				return nil, invalid("matrix", fmt.Sprintf("entries (%d,%d) and (%d,%d) differ", i, j, j, i))
			}
		}
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, rows[i][j])
		}
	}

	return &DistanceMatrix{sym: sym, n: n}, nil
}

// EuclideanMatrix builds the pairwise Euclidean distance matrix of points.
func EuclideanMatrix(points []Point) (*DistanceMatrix, error) {
	n := len(points)
	if n < 2 {
		return nil, invalid("points", fmt.Sprintf("needs at least 2 cities, got %d", n))
	}
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, invalid("points", fmt.Sprintf("point %d is not finite", i))
		}
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sym.SetSym(i, j, math.Hypot(points[i].X-points[j].X, points[i].Y-points[j].Y))
		}
	}

	return &DistanceMatrix{sym: sym, n: n}, nil
}

// Size returns the number of cities.
func (d *DistanceMatrix) Size() int {
	return d.n
}

// At returns the distance between cities i and j.
func (d *DistanceMatrix) At(i, j int) float64 {
	return d.sym.At(i, j)
}

// Rows returns a fresh [][]float64 copy of the matrix.
func (d *DistanceMatrix) Rows() [][]float64 {
	rows := make([][]float64, d.n)
	for i := range rows {
		rows[i] = make([]float64, d.n)
		for j := range rows[i] {
			rows[i][j] = d.sym.At(i, j)
		}
	}
	return rows
}
