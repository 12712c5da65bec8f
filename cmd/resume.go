package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cwbudde/annealtsp/internal/tsp"
	"github.com/spf13/cobra"
)

var (
	resumeFlags annealFlags
	resumeSave  bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Continue annealing from a saved run's best tour",
	Long: `Loads a saved run, re-reads its instance and starts a new run from the
stored best tour. Annealing parameters default to the saved run's values;
any flag given on the command line overrides them. The new run records
which run it was resumed from.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeFlags.register(resumeCmd)
	resumeCmd.Flags().BoolVar(&resumeSave, "save", true, "Save the resumed run")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	runID := args[0]

	runStore, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	rec, err := runStore.LoadRun(runID)
	runStore.Close()
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	if strings.HasPrefix(rec.Config.InstancePath, "inline:") {
		return fmt.Errorf("run %s was started with an inline instance and cannot be resumed from the CLI", runID)
	}
	inst, err := tsp.LoadInstance(rec.Config.InstancePath)
	if err != nil {
		return fmt.Errorf("failed to reload instance: %w", err)
	}

	inheritRunConfig(cmd, rec.Config.Rule, rec.Config.Iterations, rec.Config.InitialTemp, rec.Config.Cooling, rec.Config.Seed, rec.Config.ProgressEvery)

	rc := resumeFlags.runConfig(rec.Config.InstancePath, inst)
	rc.ResumedFrom = runID
	if err := rec.IsCompatible(rc); err != nil {
		return err
	}

	cfg, err := resumeFlags.config()
	if err != nil {
		return err
	}
	cfg.InitialTour = tsp.Tour(rec.Tour)

	slog.Info("Resuming run", "run_id", runID, "length", rec.Length, "iterations", cfg.Iterations)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := executeRun(ctx, inst, cfg, rc, resumeSave)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Resumed from %s (length %.4f)\n", runID, rec.Length)
	return reportRun(cmd.OutOrStdout(), outcome)
}

// inheritRunConfig copies saved parameters into resumeFlags for every flag the
// user did not set.
func inheritRunConfig(cmd *cobra.Command, rule string, iters int, temp, cooling float64, seed int64, every int) {
	flags := cmd.Flags()
	if !flags.Changed("rule") && rule != "" {
		resumeFlags.rule = rule
	}
	if !flags.Changed("iters") && iters > 0 {
		resumeFlags.iters = iters
	}
	if !flags.Changed("temp") && temp > 0 {
		resumeFlags.initialTemp = temp
	}
	if !flags.Changed("cooling") && cooling > 0 {
		resumeFlags.cooling = cooling
	}
	if !flags.Changed("seed") {
		resumeFlags.seed = seed
	}
	if !flags.Changed("progress-every") {
		resumeFlags.progressEvery = every
	}
}
