package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/annealtsp/internal/anneal"
	"github.com/cwbudde/annealtsp/internal/store"
)

// progressInterval throttles SSE progress broadcasts.
const progressInterval = 500 * time.Millisecond

// runJob executes an annealing job. When runStore is not nil the finished
// (or cancelled) run is saved as a run record and its progress is traced
// under dataDir.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, dataDir, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := ctx.Err(); err != nil {
		markJobCancelled(jm, jobID)
		return err
	}

	dist, err := job.Config.Instance.DistanceMatrix()
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	cfg, err := job.Config.annealConfig()
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	var trace *store.TraceWriter
	if runStore != nil && dataDir != "" {
		trace, err = store.NewTraceWriter(dataDir, jobID, false)
		if err != nil {
			slog.Warn("Trace disabled", "job_id", jobID, "error", err)
			trace = nil
		} else {
			defer trace.Close()
		}
	}

	cfg.Observer = func(p anneal.Progress) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Iterations = p.Iteration
			j.Temperature = p.Temperature
			j.CurrentLength = p.CurrentLength
			j.BestLength = p.BestLength
			j.Accepted = p.Accepted
		})
		if trace != nil {
			trace.Observe(p)
		}
	}

	annealer, err := anneal.New(cfg, nil)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
		j.Temperature = cfg.InitialTemp
	})
	slog.Info("Starting job", "job_id", jobID, "cities", dist.Size(), "rule", job.Config.Rule, "iterations", cfg.Iterations)

	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	res, runErr := annealer.Run(ctx, dist)
	close(progressDone)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		markJobFailed(jm, jobID, runErr)
		return runErr
	}

	state := StateCompleted
	status := store.StatusCompleted
	if runErr != nil {
		state = StateCancelled
		status = store.StatusCancelled
	}

	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = state
		j.BestTour = res.Tour
		j.BestLength = res.Length
		j.InitialLength = res.InitialLength
		j.Iterations = res.Iterations
		j.Temperature = res.FinalTemperature
		j.Accepted = res.Accepted
		j.EndTime = &endTime
	})

	slog.Info("Job finished",
		"job_id", jobID,
		"state", state,
		"elapsed", res.Elapsed,
		"initial_length", res.InitialLength,
		"best_length", res.Length,
	)

	if runStore != nil {
		if err := saveRun(runStore, jobID, job.Config, res, status); err != nil {
			slog.Error("Failed to save run", "job_id", jobID, "error", err)
		}
	}

	jm.hub.Publish(ProgressEvent{
		JobID:       jobID,
		State:       state,
		Iterations:  res.Iterations,
		BestLength:  res.Length,
		Temperature: res.FinalTemperature,
		Timestamp:   time.Now(),
	})

	return runErr
}

// saveRun persists a finished job as a run record.
func saveRun(runStore store.Store, jobID string, config JobConfig, res *anneal.Result, status string) error {
	rec := &store.RunRecord{
		RunID:            jobID,
		Status:           status,
		Tour:             res.Tour,
		Length:           res.Length,
		InitialLength:    res.InitialLength,
		Iterations:       res.Iterations,
		FinalTemperature: res.FinalTemperature,
		Accepted:         res.Accepted,
		Improvements:     res.Improvements,
		Elapsed:          res.Elapsed,
		Timestamp:        time.Now(),
		Config: store.RunConfig{
			InstancePath:  config.InstancePath,
			InstanceName:  config.Instance.Name,
			Cities:        config.Instance.Size(),
			Rule:          config.Rule,
			Iterations:    config.Iterations,
			InitialTemp:   config.InitialTemp,
			Cooling:       config.Cooling,
			Seed:          config.Seed,
			ProgressEvery: config.ProgressEvery,
		},
		System: store.CollectSysInfo(),
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	return runStore.SaveRun(jobID, rec)
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			jm.hub.Publish(progressEventFor(job))
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)

	if job, ok := jm.GetJob(jobID); ok {
		jm.hub.Publish(progressEventFor(job))
	}
}

// markJobCancelled marks a job as cancelled before it started
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
