package tsp_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/annealtsp/internal/tsp"
	"github.com/stretchr/testify/require"
)

func TestDecodeInstance_Points(t *testing.T) {
	body := `{"name": "square", "points": [{"x":0,"y":0},{"x":1,"y":0},{"x":1,"y":1},{"x":0,"y":1}]}`
	inst, err := tsp.DecodeInstance(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, "square", inst.Name)
	require.Equal(t, 4, inst.Size())

	d, err := inst.DistanceMatrix()
	require.NoError(t, err)
	require.Equal(t, 4.0, tsp.Tour{0, 1, 2, 3}.Length(d))
}

func TestDecodeInstance_Matrix(t *testing.T) {
	body := `{"matrix": [[0,5,9],[5,0,4],[9,4,0]]}`
	inst, err := tsp.DecodeInstance(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, 3, inst.Size())

	d, err := inst.DistanceMatrix()
	require.NoError(t, err)
	require.Equal(t, 18.0, tsp.Tour{0, 1, 2}.Length(d))
}

func TestDecodeInstance_BadJSON(t *testing.T) {
	_, err := tsp.DecodeInstance(strings.NewReader(`{"points": [`))
	require.Error(t, err)
}

func TestInstanceDistanceMatrix_Rejects(t *testing.T) {
	both := &tsp.Instance{
		Points: unitSquare(),
		Matrix: [][]float64{{0, 1}, {1, 0}},
	}
	_, err := both.DistanceMatrix()
	require.ErrorIs(t, err, tsp.ErrInvalidInput)

	_, err = (&tsp.Instance{}).DistanceMatrix()
	require.ErrorIs(t, err, tsp.ErrInvalidInput)

	_, err = (&tsp.Instance{Matrix: [][]float64{{0, 1}, {3, 0}}}).DistanceMatrix()
	require.ErrorIs(t, err, tsp.ErrInvalidInput)
}

func TestLoadInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"tiny","matrix":[[0,2],[2,0]]}`), 0644))

	inst, err := tsp.LoadInstance(path)
	require.NoError(t, err)
	require.Equal(t, "tiny", inst.Name)

	_, err = tsp.LoadInstance(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
