package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/annealtsp/internal/solve"
	"github.com/cwbudde/annealtsp/internal/tsp"
	"github.com/spf13/cobra"
)

var (
	compareFlags    annealFlags
	compareInstance string
	compareRules    []string
	withMayfly      bool
	mayflyIters     int
	mayflyPop       int
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare neighborhood rules and the mayfly baseline on one instance",
	Long: `Runs annealing once per neighborhood rule, and optionally the mayfly
random-key optimizer, concurrently on the same instance. Each solver gets
the same seed. Results are listed with their gap to the best tour found.`,
	RunE: runCompare,
}

func init() {
	// --rules replaces --rule here.
	compareFlags.rule = tsp.RuleReverse
	compareFlags.registerSchedule(compareCmd)
	compareCmd.Flags().StringVar(&compareInstance, "instance", "", "Instance JSON path (required)")
	compareCmd.Flags().StringSliceVar(&compareRules, "rules", tsp.NeighborhoodNames(), "Neighborhood rules to compare")
	compareCmd.Flags().BoolVar(&withMayfly, "mayfly", true, "Include the mayfly random-key baseline")
	compareCmd.Flags().IntVar(&mayflyIters, "mayfly-iters", 200, "Mayfly iterations")
	compareCmd.Flags().IntVar(&mayflyPop, "mayfly-pop", 30, "Mayfly population size")

	compareCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	inst, err := tsp.LoadInstance(compareInstance)
	if err != nil {
		return err
	}
	dist, err := inst.DistanceMatrix()
	if err != nil {
		return err
	}
	solvers, err := buildSolvers()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, err := solve.Compare(ctx, dist, solvers...)
	if err != nil {
		slog.Warn("Some solvers failed", "error", err)
	}
	if outcomes == nil {
		return err
	}
	return printComparison(cmd.OutOrStdout(), outcomes)
}

func buildSolvers() ([]solve.Solver, error) {
	// NewAnnealSolver swaps in each rule's neighborhood.
	cfg, err := compareFlags.config()
	if err != nil {
		return nil, err
	}
	cfg.ProgressEvery = 0

	var solvers []solve.Solver
	for _, rule := range compareRules {
		s, err := solve.NewAnnealSolver(strings.TrimSpace(rule), cfg)
		if err != nil {
			return nil, err
		}
		solvers = append(solvers, s)
	}
	if withMayfly {
		solvers = append(solvers, &solve.RandomKeySolver{
			Iterations: mayflyIters,
			Population: mayflyPop,
			Seed:       compareFlags.seed,
		})
	}
	if len(solvers) == 0 {
		return nil, &tsp.InputError{Field: "solvers", Reason: "select at least one rule or --mayfly"}
	}
	return solvers, nil
}

func printComparison(w io.Writer, outcomes []solve.Outcome) error {
	best := solve.Best(outcomes)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOLVER\tLENGTH\tGAP\tITERATIONS\tELAPSED")
	for i, o := range outcomes {
		if o.Err != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t%d\tfailed: %s\n", o.Solver, o.Iterations, o.Err)
			continue
		}
		marker := ""
		if i == best {
			marker = " *"
		}
		gap := solve.Gap(o.Length, outcomes[best].Length)
		fmt.Fprintf(tw, "%s%s\t%.4f\t%.2f%%\t%d\t%s\n",
			o.Solver, marker, o.Length, gap*100, o.Iterations, o.Elapsed.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if best >= 0 {
		fmt.Fprintf(w, "\nBest tour (%s): %v\n", outcomes[best].Solver, outcomes[best].Tour)
	}
	return nil
}
