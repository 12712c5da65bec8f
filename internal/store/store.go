package store

import (
	"fmt"
	"path/filepath"
)

// Store defines the interface for run record persistence.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if the run doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun stores the record under runID, replacing any previous record.
	SaveRun(runID string, rec *RunRecord) error

	// LoadRun retrieves the record for runID.
	// Returns ErrNotFound if no record exists.
	LoadRun(runID string) (*RunRecord, error)

	// ListRuns returns metadata for all stored runs, oldest first.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the record and its artifacts.
	// Returns ErrNotFound if no record exists.
	DeleteRun(runID string) error

	// Close releases resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// SQLiteFileName is the database file created under the data directory.
const SQLiteFileName = "runs.db"

// Open creates a store of the given kind rooted at dir.
func Open(kind, dir string) (Store, error) {
	switch kind {
	case BackendFS, "":
		return NewFSStore(dir)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, SQLiteFileName))
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %s or %s)", kind, BackendFS, BackendSQLite)
	}
}

// RunDir returns the artifact directory for a run: <baseDir>/runs/<runID>.
// Both backends keep traces there.
func RunDir(baseDir, runID string) string {
	return filepath.Join(baseDir, "runs", runID)
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
