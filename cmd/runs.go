package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/annealtsp/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	keepLast      int
	olderThanDays int
	forceClean    bool
	showTrace     bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage saved runs",
	Long: `Manage saved annealing runs: list them, show one in detail, or clean
old runs. Saved runs can be continued with the resume command.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved runs",
	Long:  `Display all saved runs with run ID, status, timestamp, iterations, tour length and disk usage.`,
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old runs",
	Long: `Delete old runs based on retention policy.
You can keep only the newest N runs or delete runs older than N days.`,
	RunE: runCleanRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	showRunCmd.Flags().BoolVar(&showTrace, "trace", false, "Print the recorded progress trace")

	cleanRunsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N runs (0 = keep all)")
	cleanRunsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListRuns(cmd *cobra.Command, args []string) error {
	runStore, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTATUS\tSAVED\tCITIES\tRULE\tITERATIONS\tLENGTH\tSIZE")
	for _, info := range infos {
		sizeStr := "unknown"
		if size, err := getDirSize(store.RunDir(dataDir, info.RunID)); err == nil {
			sizeStr = humanize.IBytes(uint64(size))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%.4f\t%s\n",
			shortID(info.RunID),
			info.Status,
			humanize.Time(info.Timestamp),
			info.Cities,
			info.Rule,
			info.Iterations,
			info.Length,
			sizeStr,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal runs: %d\n", len(infos))
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	runStore, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	rec, err := runStore.LoadRun(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printRecord(out, rec)

	if !showTrace {
		return nil
	}
	tr, err := store.NewTraceReader(dataDir, rec.RunID)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(out, "\nNo trace recorded.")
		return nil
	}
	if err != nil {
		return err
	}
	defer tr.Close()

	entries, err := tr.ReadAll()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITERATION\tTEMPERATURE\tCURRENT\tBEST\tACCEPTED")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%.4g\t%.4f\t%.4f\t%d\n", e.Iteration, e.Temperature, e.CurrentLength, e.BestLength, e.Accepted)
	}
	return w.Flush()
}

func printRecord(w io.Writer, rec *store.RunRecord) {
	fmt.Fprintf(w, "Run: %s\n", rec.RunID)
	fmt.Fprintf(w, "Status: %s\n", rec.Status)
	fmt.Fprintf(w, "Saved: %s (%s)\n", rec.Timestamp.Format("2006-01-02 15:04:05"), humanize.Time(rec.Timestamp))
	if rec.Config.ResumedFrom != "" {
		fmt.Fprintf(w, "Resumed from: %s\n", rec.Config.ResumedFrom)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Instance: %s\n", rec.Config.InstancePath)
	fmt.Fprintf(w, "  Cities: %d, rule: %s\n", rec.Config.Cities, rec.Config.Rule)
	fmt.Fprintf(w, "  Iterations: %d, T0: %g, cooling: %g, seed: %d\n",
		rec.Config.Iterations, rec.Config.InitialTemp, rec.Config.Cooling, rec.Config.Seed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Result:")
	fmt.Fprintf(w, "  Length: %.4f (initial %.4f)\n", rec.Length, rec.InitialLength)
	fmt.Fprintf(w, "  Iterations: %d, accepted: %s, new bests: %d\n", rec.Iterations, humanize.Comma(int64(rec.Accepted)), rec.Improvements)
	fmt.Fprintf(w, "  Final temperature: %.4g\n", rec.FinalTemperature)
	fmt.Fprintf(w, "  Elapsed: %s\n", rec.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Tour: %v\n", rec.Tour)

	if rec.System != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "System: %s, %s, %s\n", rec.System.Platform, rec.System.CPU, rec.System.Memory)
	}
}

func runCleanRuns(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	runStore, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs to clean.")
		return nil
	}

	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No runs match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (length %.4f, %s)\n",
			shortID(info.RunID),
			info.Length,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := runStore.DeleteRun(info.RunID); err != nil {
			slog.Error("Failed to delete run", "run_id", info.RunID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted run", "run_id", info.RunID)
		deleted++
	}

	fmt.Fprintf(out, "\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRunsForDeletion applies the retention policy: runs older than
// olderThanDays, plus everything but the newest keepLast runs.
func selectRunsForDeletion(infos []store.RunInfo, keepLast int, olderThanDays int, now time.Time) []store.RunInfo {
	var toDelete []store.RunInfo
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := now.AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.RunInfo, len(infos))
		copy(sorted, infos)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.RunID] {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
