package tsp_test

import (
	"testing"

	"github.com/cwbudde/annealtsp/internal/tsp"
	"github.com/stretchr/testify/require"
)

func TestTourLength_IncludesWraparound(t *testing.T) {
	d, err := tsp.EuclideanMatrix(unitSquare())
	require.NoError(t, err)

	// Perimeter order.
	require.Equal(t, 4.0, tsp.Tour{0, 1, 2, 3}.Length(d))
	// Crossing order: two sides plus two diagonals.
	require.InDelta(t, 2+2*1.4142135623730951, tsp.Tour{0, 2, 1, 3}.Length(d), 1e-12)
}

func TestTourLength_TwoCities(t *testing.T) {
	d, err := tsp.NewDistanceMatrix([][]float64{{0, 3}, {3, 0}})
	require.NoError(t, err)

	// There and back.
	require.Equal(t, 6.0, tsp.Tour{1, 0}.Length(d))
}

func TestTourValidate(t *testing.T) {
	require.NoError(t, tsp.Tour{2, 0, 1}.Validate(3))

	require.ErrorIs(t, tsp.Tour{0, 1}.Validate(3), tsp.ErrInvalidInput)
	require.ErrorIs(t, tsp.Tour{0, 1, 1}.Validate(3), tsp.ErrInvalidInput)
	require.ErrorIs(t, tsp.Tour{0, 1, 3}.Validate(3), tsp.ErrInvalidInput)
	require.ErrorIs(t, tsp.Tour{0, -1, 2}.Validate(3), tsp.ErrInvalidInput)
}

func TestTourCloneAndEqual(t *testing.T) {
	orig := tsp.Tour{3, 1, 0, 2}
	cp := orig.Clone()
	require.True(t, orig.Equal(cp))

	cp[0] = 2
	require.False(t, orig.Equal(cp))
	require.Equal(t, 3, orig[0])

	require.Nil(t, tsp.Tour(nil).Clone())
}

func TestRandomTour_IsPermutation(t *testing.T) {
	rng := tsp.NewRand(7)
	for n := 1; n <= 12; n++ {
		tour := tsp.RandomTour(n, rng)
		require.NoError(t, tour.Validate(n))
	}
}

func TestNewRand_ZeroSeedIsDeterministic(t *testing.T) {
	a := tsp.RandomTour(20, tsp.NewRand(0))
	b := tsp.RandomTour(20, tsp.NewRand(0))
	require.Equal(t, a, b)
}
