package tsp_test

import (
	"math"
	"testing"

	"github.com/cwbudde/annealtsp/internal/tsp"
	"github.com/stretchr/testify/require"
)

// unitSquare returns the corners of the unit square in perimeter order.
func unitSquare() []tsp.Point {
	return []tsp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

func TestEuclideanMatrix_UnitSquare(t *testing.T) {
	d, err := tsp.EuclideanMatrix(unitSquare())
	require.NoError(t, err)
	require.Equal(t, 4, d.Size())

	require.Equal(t, 0.0, d.At(0, 0))
	require.Equal(t, 1.0, d.At(0, 1))
	require.Equal(t, 1.0, d.At(1, 0))
	require.InDelta(t, math.Sqrt2, d.At(0, 2), 1e-12)
	require.InDelta(t, math.Sqrt2, d.At(3, 1), 1e-12)
}

func TestEuclideanMatrix_TooFewPoints(t *testing.T) {
	_, err := tsp.EuclideanMatrix([]tsp.Point{{X: 1, Y: 1}})
	require.ErrorIs(t, err, tsp.ErrInvalidInput)
}

func TestEuclideanMatrix_NaNPoint(t *testing.T) {
	_, err := tsp.EuclideanMatrix([]tsp.Point{{X: 0, Y: 0}, {X: math.NaN(), Y: 1}})
	require.ErrorIs(t, err, tsp.ErrInvalidInput)
}

func TestNewDistanceMatrix_Valid(t *testing.T) {
	rows := [][]float64{
		{0, 2, 3},
		{2, 0, 4},
		{3, 4, 0},
	}
	d, err := tsp.NewDistanceMatrix(rows)
	require.NoError(t, err)
	require.Equal(t, 3, d.Size())
	require.Equal(t, 4.0, d.At(2, 1))
	require.Equal(t, rows, d.Rows())
}

func TestNewDistanceMatrix_Rejects(t *testing.T) {
	cases := []struct {
		name string
		rows [][]float64
	}{
		{"empty", nil},
		{"single city", [][]float64{{0}}},
		{"non-square", [][]float64{{0, 1, 2}, {1, 0, 3}}},
		{"ragged", [][]float64{{0, 1}, {1}}},
		{"asymmetric", [][]float64{{0, 1}, {2, 0}}},
		{"negative", [][]float64{{0, -1}, {-1, 0}}},
		{"nan", [][]float64{{0, math.NaN()}, {math.NaN(), 0}}},
		{"inf", [][]float64{{0, math.Inf(1)}, {math.Inf(1), 0}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tsp.NewDistanceMatrix(tc.rows)
			require.ErrorIs(t, err, tsp.ErrInvalidInput)

			var inputErr *tsp.InputError
			require.ErrorAs(t, err, &inputErr)
			require.Equal(t, "matrix", inputErr.Field)
		})
	}
}

func TestDistanceMatrix_RowsIsACopy(t *testing.T) {
	d, err := tsp.EuclideanMatrix(unitSquare())
	require.NoError(t, err)

	rows := d.Rows()
	rows[0][1] = 99

	require.Equal(t, 1.0, d.At(0, 1))
}
