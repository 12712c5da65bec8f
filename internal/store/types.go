package store

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/annealtsp/internal/tsp"
)

// Run status values.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// RunConfig is the persisted copy of the parameters a run was started with.
// It lives here rather than in server to avoid an import cycle.
type RunConfig struct {
	InstancePath  string  `json:"instancePath"`
	InstanceName  string  `json:"instanceName,omitempty"`
	Cities        int     `json:"cities"`
	Rule          string  `json:"rule"`
	Iterations    int     `json:"iterations"`
	InitialTemp   float64 `json:"initialTemp"`
	Cooling       float64 `json:"cooling"`
	Seed          int64   `json:"seed"`
	ProgressEvery int     `json:"progressEvery,omitempty"`
	ResumedFrom   string  `json:"resumedFrom,omitempty"`
}

// RunRecord is a finished (or cancelled) annealing run.
//
// Only the best tour is kept. Resuming a run warm-starts a fresh annealer
// from that tour at the configured initial temperature; the walk's current
// tour and temperature are not restored.
type RunRecord struct {
	RunID            string        `json:"runId"`
	Status           string        `json:"status"`
	Tour             []int         `json:"tour"`
	Length           float64       `json:"length"`
	InitialLength    float64       `json:"initialLength"`
	Iterations       int           `json:"iterations"`
	FinalTemperature float64       `json:"finalTemperature"`
	Accepted         int           `json:"accepted"`
	Improvements     int           `json:"improvements"`
	Elapsed          time.Duration `json:"elapsed"`
	Timestamp        time.Time     `json:"timestamp"`
	Config           RunConfig     `json:"config"`
	System           *SysInfo      `json:"system,omitempty"`
}

// RunInfo is the listing view of a run, without the tour.
type RunInfo struct {
	RunID        string    `json:"runId"`
	Status       string    `json:"status"`
	Length       float64   `json:"length"`
	Iterations   int       `json:"iterations"`
	Timestamp    time.Time `json:"timestamp"`
	Rule         string    `json:"rule"`
	Cities       int       `json:"cities"`
	InstancePath string    `json:"instancePath"`
}

// ToInfo converts a full record to its listing view.
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:        r.RunID,
		Status:       r.Status,
		Length:       r.Length,
		Iterations:   r.Iterations,
		Timestamp:    r.Timestamp,
		Rule:         r.Config.Rule,
		Cities:       r.Config.Cities,
		InstancePath: r.Config.InstancePath,
	}
}

// Validate checks that the record is internally consistent.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.Status != StatusCompleted && r.Status != StatusCancelled {
		return &ValidationError{Field: "Status", Reason: fmt.Sprintf("unknown status %q", r.Status)}
	}
	if r.Config.InstancePath == "" {
		return &ValidationError{Field: "Config.InstancePath", Reason: "cannot be empty"}
	}
	if r.Config.Cities < 2 {
		return &ValidationError{Field: "Config.Cities", Reason: "must be at least 2"}
	}
	if r.Config.Rule == "" {
		return &ValidationError{Field: "Config.Rule", Reason: "cannot be empty"}
	}
	if r.Config.Iterations <= 0 {
		return &ValidationError{Field: "Config.Iterations", Reason: "must be positive"}
	}
	if err := tsp.Tour(r.Tour).Validate(r.Config.Cities); err != nil {
		return &ValidationError{Field: "Tour", Reason: err.Error()}
	}
	if r.Length < 0 || math.IsNaN(r.Length) {
		return &ValidationError{Field: "Length", Reason: "cannot be negative"}
	}
	if r.InitialLength < 0 || math.IsNaN(r.InitialLength) {
		return &ValidationError{Field: "InitialLength", Reason: "cannot be negative"}
	}
	if r.Length > r.InitialLength {
		return &ValidationError{Field: "Length", Reason: "exceeds initial length"}
	}
	if r.Iterations < 0 || r.Iterations > r.Config.Iterations {
		return &ValidationError{Field: "Iterations", Reason: fmt.Sprintf("must be in [0,%d]", r.Config.Iterations)}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks whether the run can warm-start a new run with config.
// The instance and city count must match; annealing parameters may differ.
func (r *RunRecord) IsCompatible(config RunConfig) error {
	if r.Config.InstancePath != config.InstancePath {
		return &CompatibilityError{
			Field:    "InstancePath",
			Expected: r.Config.InstancePath,
			Actual:   config.InstancePath,
		}
	}
	if r.Config.Cities != config.Cities {
		return &CompatibilityError{
			Field:    "Cities",
			Expected: fmt.Sprintf("%d", r.Config.Cities),
			Actual:   fmt.Sprintf("%d", config.Cities),
		}
	}
	return nil
}

// CompatibilityError represents a resume compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
