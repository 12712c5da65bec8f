package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/annealtsp/internal/anneal"
	"github.com/cwbudde/annealtsp/internal/store"
	"github.com/cwbudde/annealtsp/internal/tsp"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// annealFlags holds the annealing parameters shared by run, compare and resume.
type annealFlags struct {
	rule          string
	iters         int
	initialTemp   float64
	cooling       float64
	seed          int64
	progressEvery int
}

func (f *annealFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rule, "rule", tsp.RuleReverse, "Neighborhood rule: reverse, swap")
	f.registerSchedule(cmd)
}

// registerSchedule adds every annealing flag except --rule.
func (f *annealFlags) registerSchedule(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.iters, "iters", anneal.DefaultIterations, "Number of iterations")
	cmd.Flags().Float64Var(&f.initialTemp, "temp", anneal.DefaultInitialTemp, "Initial temperature")
	cmd.Flags().Float64Var(&f.cooling, "cooling", anneal.DefaultCooling, "Geometric cooling factor in (0,1)")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed (0 uses the default seed)")
	cmd.Flags().IntVar(&f.progressEvery, "progress-every", 1000, "Trace and log progress every N iterations (0 = off)")
}

func (f *annealFlags) config() (anneal.Config, error) {
	nb, err := tsp.LookupNeighborhood(f.rule)
	if err != nil {
		return anneal.Config{}, err
	}
	cfg := anneal.Config{
		Iterations:    f.iters,
		InitialTemp:   f.initialTemp,
		Cooling:       f.cooling,
		Neighborhood:  nb,
		Seed:          f.seed,
		ProgressEvery: f.progressEvery,
	}
	return cfg, cfg.Validate()
}

func (f *annealFlags) runConfig(instancePath string, inst *tsp.Instance) store.RunConfig {
	return store.RunConfig{
		InstancePath:  instancePath,
		InstanceName:  inst.Name,
		Cities:        inst.Size(),
		Rule:          f.rule,
		Iterations:    f.iters,
		InitialTemp:   f.initialTemp,
		Cooling:       f.cooling,
		Seed:          f.seed,
		ProgressEvery: f.progressEvery,
	}
}

var (
	runFlags     annealFlags
	instancePath string
	tourOutPath  string
	saveRun      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run simulated annealing on an instance",
	Long: `Runs simulated annealing on a JSON instance file and prints the best tour.
An instance holds either "points" (Euclidean distances) or a full "matrix".
Interrupting the run with Ctrl-C keeps the best tour found so far.`,
	RunE: runAnnealing,
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&instancePath, "instance", "", "Instance JSON path (required)")
	runCmd.Flags().StringVar(&tourOutPath, "out", "", "Write the result as JSON to this path")
	runCmd.Flags().BoolVar(&saveRun, "save", true, "Save the run record to the data directory")

	runCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(runCmd)
}

func runAnnealing(cmd *cobra.Command, args []string) error {
	inst, err := tsp.LoadInstance(instancePath)
	if err != nil {
		return err
	}
	cfg, err := runFlags.config()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := executeRun(ctx, inst, cfg, runFlags.runConfig(instancePath, inst), saveRun)
	if err != nil {
		return err
	}
	return reportRun(cmd.OutOrStdout(), outcome)
}

// runOutcome is what run and resume report.
type runOutcome struct {
	RunID  string         `json:"runId,omitempty"`
	Status string         `json:"status"`
	Result *anneal.Result `json:"result"`
}

// executeRun anneals inst and, when persist is set, saves a run record and a
// progress trace. An interrupted run is reported and saved as cancelled.
func executeRun(ctx context.Context, inst *tsp.Instance, cfg anneal.Config, rc store.RunConfig, persist bool) (*runOutcome, error) {
	dist, err := inst.DistanceMatrix()
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	saved := false
	var runStore store.Store
	var trace *store.TraceWriter
	if persist {
		runStore, err = openStore()
		if err != nil {
			return nil, fmt.Errorf("failed to open run store: %w", err)
		}
		defer runStore.Close()

		trace, err = store.NewTraceWriter(dataDir, runID, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace: %w", err)
		}
		// Runs after trace.Close: a run that was never saved leaves nothing behind.
		defer func() {
			if saved {
				return
			}
			if err := os.RemoveAll(store.RunDir(dataDir, runID)); err != nil {
				slog.Warn("Failed to remove unsaved run directory", "run_id", runID, "error", err)
			}
		}()
		defer trace.Close()
	}

	cfg.Observer = func(p anneal.Progress) {
		slog.Debug("Progress", "iteration", p.Iteration, "temperature", p.Temperature, "current", p.CurrentLength, "best", p.BestLength)
		if trace != nil {
			trace.Observe(p)
		}
	}

	slog.Info("Starting annealing", "instance", rc.InstancePath, "cities", dist.Size(), "rule", rc.Rule, "iterations", cfg.Iterations, "seed", cfg.Seed)

	res, runErr := anneal.Solve(ctx, dist, cfg)
	status := store.StatusCompleted
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) || res == nil {
			return nil, runErr
		}
		status = store.StatusCancelled
		slog.Warn("Run interrupted, keeping best tour so far", "iterations", res.Iterations)
	}

	slog.Info("Annealing complete",
		"elapsed", res.Elapsed,
		"initial_length", res.InitialLength,
		"best_length", res.Length,
		"accepted", res.Accepted,
		"improvements", res.Improvements,
	)

	outcome := &runOutcome{Status: status, Result: res}
	if runStore != nil {
		rec := &store.RunRecord{
			RunID:            runID,
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
			Config:           rc,
			System:           store.CollectSysInfo(),
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("run record: %w", err)
		}
		if err := runStore.SaveRun(runID, rec); err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
		saved = true
		outcome.RunID = runID
	}

	if tourOutPath != "" {
		if err := writeJSONFile(tourOutPath, outcome); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func reportRun(w io.Writer, o *runOutcome) error {
	res := o.Result
	improvement := 0.0
	if res.InitialLength > 0 {
		improvement = (res.InitialLength - res.Length) / res.InitialLength * 100
	}

	fmt.Fprintf(w, "Best tour length: %.4f (initial %.4f, %.1f%% shorter)\n", res.Length, res.InitialLength, improvement)
	fmt.Fprintf(w, "Tour: %v\n", res.Tour)
	fmt.Fprintf(w, "Iterations: %d, accepted: %d, new bests: %d, final temperature: %.3g, elapsed: %s\n",
		res.Iterations, res.Accepted, res.Improvements, res.FinalTemperature, res.Elapsed.Round(time.Millisecond))
	if o.Status == store.StatusCancelled {
		fmt.Fprintln(w, "Run was interrupted before the iteration budget was spent.")
	}
	if o.RunID != "" {
		fmt.Fprintf(w, "Saved run %s\n", o.RunID)
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
