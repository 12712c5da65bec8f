package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwbudde/annealtsp/internal/tsp"
)

// JobSummary is the listing view of a job.
type JobSummary struct {
	ID            string   `json:"id"`
	State         JobState `json:"state"`
	Name          string   `json:"name,omitempty"`
	Cities        int      `json:"cities"`
	Rule          string   `json:"rule"`
	Iterations    int      `json:"iterations"`
	Budget        int      `json:"budget"`
	BestLength    float64  `json:"bestLength"`
	InitialLength float64  `json:"initialLength"`
}

// JobStatus is the detailed view of a job returned by the status endpoint.
type JobStatus struct {
	JobSummary
	Seed          int64      `json:"seed"`
	InitialTemp   float64    `json:"initialTemp"`
	Cooling       float64    `json:"cooling"`
	CurrentLength float64    `json:"currentLength"`
	Temperature   float64    `json:"temperature"`
	Accepted      int        `json:"accepted"`
	BestTour      tsp.Tour   `json:"bestTour,omitempty"`
	Elapsed       float64    `json:"elapsed"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	Error         string     `json:"error,omitempty"`
}

func summarize(job Job) JobSummary {
	return JobSummary{
		ID:            job.ID,
		State:         job.State,
		Name:          job.Config.Instance.Name,
		Cities:        job.Cities,
		Rule:          job.Config.Rule,
		Iterations:    job.Iterations,
		Budget:        job.Config.Iterations,
		BestLength:    job.BestLength,
		InitialLength: job.InitialLength,
	}
}

func statusFor(job Job) JobStatus {
	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	return JobStatus{
		JobSummary:    summarize(job),
		Seed:          job.Config.Seed,
		InitialTemp:   job.Config.InitialTemp,
		Cooling:       job.Config.Cooling,
		CurrentLength: job.CurrentLength,
		Temperature:   job.Temperature,
		Accepted:      job.Accepted,
		BestTour:      job.BestTour,
		Elapsed:       elapsed.Seconds(),
		StartTime:     job.StartTime,
		EndTime:       job.EndTime,
		Error:         job.Error,
	}
}

// validateJobConfig fills defaults and rejects requests the worker could not run.
func validateJobConfig(config *JobConfig) error {
	dist, err := config.Instance.DistanceMatrix()
	if err != nil {
		return err
	}
	config.applyDefaults()
	if _, err := config.annealConfig(); err != nil {
		return err
	}
	if config.InitialTour != nil {
		if err := config.InitialTour.Validate(dist.Size()); err != nil {
			return fmt.Errorf("initialTour: %w", err)
		}
	}
	return nil
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
