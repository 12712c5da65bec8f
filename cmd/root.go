package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cwbudde/annealtsp/internal/store"
	"github.com/spf13/cobra"
)

var (
	logLevel     string
	dataDir      string
	storeBackend string
)

var rootCmd = &cobra.Command{
	Use:   "annealtsp",
	Short: "Simulated annealing for the travelling salesman problem",
	Long: `annealtsp searches for short closed tours over a set of cities with
simulated annealing. Runs can be compared against a mayfly random-key
baseline, saved, resumed and served over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q: use debug, info, warn or error", logLevel)
		}
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(handler))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Base directory for run records and traces")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", store.BackendFS, "Run record backend (fs, sqlite)")
}

// openStore opens the configured run store.
func openStore() (store.Store, error) {
	return store.Open(storeBackend, dataDir)
}
