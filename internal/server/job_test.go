package server

import (
	"context"
	"sync"
	"testing"

	"github.com/cwbudde/annealtsp/internal/tsp"
)

func squareConfig() JobConfig {
	return JobConfig{
		Instance: tsp.Instance{
			Name:   "square",
			Points: []tsp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		},
		Iterations: 500,
		Seed:       42,
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(squareConfig(), nil)

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}
	if job.Cities != 4 {
		t.Errorf("Cities = %d, want 4", job.Cities)
	}
	if job.Config.Instance.Name != "square" {
		t.Errorf("Config not set correctly")
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(squareConfig(), nil)

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should exist")
	}
	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	// Snapshots are detached from the manager.
	retrieved.State = StateFailed
	again, _ := jm.GetJob(job.ID)
	if again.State != StatePending {
		t.Error("Mutating a snapshot changed the stored job")
	}

	if _, exists := jm.GetJob("nonexistent"); exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	first := jm.CreateJob(squareConfig(), nil)
	second := jm.CreateJob(squareConfig(), nil)

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	seen := map[string]bool{jobs[0].ID: true, jobs[1].ID: true}
	if !seen[first.ID] || !seen[second.ID] {
		t.Error("ListJobs should return both jobs")
	}
	if jobs[0].StartTime.After(jobs[1].StartTime) {
		t.Error("Jobs should be listed oldest first")
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(squareConfig(), nil)

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Iterations = 10
		j.BestLength = 4.5
	})
	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning || updated.Iterations != 10 || updated.BestLength != 4.5 {
		t.Errorf("Update not applied: %+v", updated)
	}

	if err := jm.UpdateJob("nonexistent", func(j *Job) {}); err == nil {
		t.Error("Update of nonexistent job should fail")
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager()
	ctx, cancel := context.WithCancel(context.Background())
	job := jm.CreateJob(squareConfig(), cancel)

	if err := jm.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}
	if ctx.Err() == nil {
		t.Error("CancelJob should cancel the job context")
	}

	if err := jm.CancelJob("nonexistent"); err == nil {
		t.Error("Cancelling a nonexistent job should fail")
	}
}

func TestJobManager_CancelFinishedJobIsNoop(t *testing.T) {
	jm := NewJobManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	job := jm.CreateJob(squareConfig(), cancel)
	jm.UpdateJob(job.ID, func(j *Job) { j.State = StateCompleted })

	if err := jm.CancelJob(job.ID); err != nil {
		t.Fatal(err)
	}
	if ctx.Err() != nil {
		t.Error("finished job should not be cancelled")
	}
	if len(jm.GetRunningJobs()) != 0 {
		t.Error("finished job reported as running")
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(squareConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(iteration int) {
			defer wg.Done()
			jm.UpdateJob(job.ID, func(j *Job) { j.Iterations = iteration })
		}(i)
		go func() {
			defer wg.Done()
			jm.ListJobs()
			jm.GetJob(job.ID)
		}()
	}
	wg.Wait()

	if _, exists := jm.GetJob(job.ID); !exists {
		t.Error("Job should still exist after concurrent updates")
	}
}

func TestJobConfig_ApplyDefaults(t *testing.T) {
	c := JobConfig{Instance: tsp.Instance{Name: "x"}}
	c.applyDefaults()

	if c.Rule != tsp.RuleReverse || c.Iterations != 10000 || c.InitialTemp != 100 || c.Cooling != 0.99 {
		t.Errorf("reference defaults not applied: %+v", c)
	}
	if c.ProgressEvery != defaultProgressEvery {
		t.Errorf("ProgressEvery = %d", c.ProgressEvery)
	}
	if c.InstancePath != "inline:x" {
		t.Errorf("InstancePath = %q", c.InstancePath)
	}
}
