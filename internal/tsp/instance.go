package tsp

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Instance is the on-disk and over-the-wire description of a problem.
// Exactly one of Points or Matrix must be set.
//
//	{"name": "square", "points": [{"x": 0, "y": 0}, {"x": 1, "y": 0}]}
//	{"name": "tiny", "matrix": [[0, 2], [2, 0]]}
type Instance struct {
	Name   string      `json:"name,omitempty"`
	Points []Point     `json:"points,omitempty"`
	Matrix [][]float64 `json:"matrix,omitempty"`
}

// LoadInstance reads an Instance from a JSON file.
func LoadInstance(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open instance: %w", err)
	}
	defer f.Close()

	inst, err := DecodeInstance(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return inst, nil
}

// DecodeInstance reads an Instance from JSON.
func DecodeInstance(r io.Reader) (*Instance, error) {
	var inst Instance
	if err := json.NewDecoder(r).Decode(&inst); err != nil {
		return nil, fmt.Errorf("failed to decode instance: %w", err)
	}
	return &inst, nil
}

// Size returns the number of cities described by the instance.
func (inst *Instance) Size() int {
	if len(inst.Matrix) > 0 {
		return len(inst.Matrix)
	}
	return len(inst.Points)
}

// DistanceMatrix validates the instance and builds its distance matrix.
// Points are turned into Euclidean distances; an explicit matrix is used as is.
func (inst *Instance) DistanceMatrix() (*DistanceMatrix, error) {
	switch {
	case len(inst.Points) > 0 && len(inst.Matrix) > 0:
		return nil, invalid("instance", "sets both points and matrix")
	case len(inst.Points) > 0:
		return EuclideanMatrix(inst.Points)
	case len(inst.Matrix) > 0:
		return NewDistanceMatrix(inst.Matrix)
	default:
		return nil, invalid("instance", "has neither points nor matrix")
	}
}
