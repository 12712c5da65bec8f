package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cwbudde/annealtsp/internal/anneal"
	"github.com/cwbudde/annealtsp/internal/tsp"
	"github.com/google/uuid"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Finished reports whether the job has reached a terminal state.
func (s JobState) Finished() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// JobConfig is the body of a job creation request.
type JobConfig struct {
	Instance      tsp.Instance `json:"instance"`
	InstancePath  string       `json:"instancePath,omitempty"`
	Rule          string       `json:"rule"`
	Iterations    int          `json:"iterations"`
	InitialTemp   float64      `json:"initialTemp"`
	Cooling       float64      `json:"cooling"`
	Seed          int64        `json:"seed"`
	ProgressEvery int          `json:"progressEvery,omitempty"`
	InitialTour   tsp.Tour     `json:"initialTour,omitempty"`
}

// defaultProgressEvery is used when a request leaves ProgressEvery unset.
const defaultProgressEvery = 100

// applyDefaults fills unset annealing parameters with the reference values.
func (c *JobConfig) applyDefaults() {
	if c.Rule == "" {
		c.Rule = tsp.RuleReverse
	}
	if c.Iterations == 0 {
		c.Iterations = anneal.DefaultIterations
	}
	if c.InitialTemp == 0 {
		c.InitialTemp = anneal.DefaultInitialTemp
	}
	if c.Cooling == 0 {
		c.Cooling = anneal.DefaultCooling
	}
	if c.ProgressEvery == 0 {
		c.ProgressEvery = defaultProgressEvery
	}
	if c.InstancePath == "" {
		c.InstancePath = "inline:" + c.Instance.Name
	}
}

// annealConfig translates the request into an annealer configuration.
func (c *JobConfig) annealConfig() (anneal.Config, error) {
	nb, err := tsp.LookupNeighborhood(c.Rule)
	if err != nil {
		return anneal.Config{}, err
	}
	cfg := anneal.Config{
		Iterations:    c.Iterations,
		InitialTemp:   c.InitialTemp,
		Cooling:       c.Cooling,
		Neighborhood:  nb,
		Seed:          c.Seed,
		InitialTour:   c.InitialTour,
		ProgressEvery: c.ProgressEvery,
	}
	return cfg, cfg.Validate()
}

// Job represents an annealing job
type Job struct {
	ID            string     `json:"id"`
	State         JobState   `json:"state"`
	Config        JobConfig  `json:"config"`
	Cities        int        `json:"cities"`
	BestTour      tsp.Tour   `json:"bestTour,omitempty"`
	BestLength    float64    `json:"bestLength"`
	InitialLength float64    `json:"initialLength"`
	CurrentLength float64    `json:"currentLength"`
	Temperature   float64    `json:"temperature"`
	Iterations    int        `json:"iterations"`
	Accepted      int        `json:"accepted"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	Error         string     `json:"error,omitempty"`

	cancel context.CancelFunc
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	hub  *ProgressHub
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*Job),
		hub:  NewProgressHub(),
	}
}

// CreateJob registers a pending job. cancel stops the job's worker.
func (jm *JobManager) CreateJob(config JobConfig, cancel context.CancelFunc) Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		Cities:    config.Instance.Size(),
		StartTime: time.Now(),
		cancel:    cancel,
	}

	jm.jobs[job.ID] = job
	return *job
}

// GetJob returns a snapshot of the job.
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns snapshots of all jobs, oldest first.
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// CancelJob asks a pending or running job to stop. The worker records the
// final state. Cancelling a finished job is a no-op.
func (jm *JobManager) CancelJob(id string) error {
	jm.mu.RLock()
	job, exists := jm.jobs[id]
	var cancel context.CancelFunc
	var finished bool
	if exists {
		cancel = job.cancel
		finished = job.State.Finished()
	}
	jm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}
	if finished || cancel == nil {
		return nil
	}
	cancel()
	return nil
}

// CancelAll stops every unfinished job.
func (jm *JobManager) CancelAll() {
	for _, job := range jm.GetRunningJobs() {
		jm.CancelJob(job.ID)
	}
}

// GetRunningJobs returns all jobs that have not finished yet
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	running := make([]Job, 0)
	for _, job := range jm.jobs {
		if !job.State.Finished() {
			running = append(running, *job)
		}
	}
	return running
}
