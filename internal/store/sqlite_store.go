package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchemaVersion = 1

// SQLiteStore implements Store on a single SQLite database file.
// Listing columns are stored next to the full JSON record so ListRuns does
// not decode tours. Traces stay on disk under RunDir.
type SQLiteStore struct {
	db      *sql.DB
	dbPath  string
	baseDir string
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps the pragmas below in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: dbPath, baseDir: dir}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Debug("SQLite store opened", "path", dbPath)
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == nil {
		if version > sqliteSchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported %d", version, sqliteSchemaVersion)
		}
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);
	INSERT OR IGNORE INTO schema_version (version) VALUES (1);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		length REAL NOT NULL,
		iterations INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		rule TEXT NOT NULL,
		cities INTEGER NOT NULL,
		instance_path TEXT NOT NULL,
		record TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun upserts the record.
func (s *SQLiteStore) SaveRun(runID string, rec *RunRecord) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if rec == nil {
		return fmt.Errorf("run record cannot be nil")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize run record: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, status, length, iterations, created_at, rule, cities, instance_path, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			length = excluded.length,
			iterations = excluded.iterations,
			created_at = excluded.created_at,
			rule = excluded.rule,
			cities = excluded.cities,
			instance_path = excluded.instance_path,
			record = excluded.record`,
		runID, rec.Status, rec.Length, rec.Iterations, rec.Timestamp.UnixNano(),
		rec.Config.Rule, rec.Config.Cities, rec.Config.InstancePath, string(data))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	slog.Debug("Run saved", "runID", runID, "db", s.dbPath)
	return nil
}

// LoadRun reads the record for runID.
func (s *SQLiteStore) LoadRun(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	var data string
	err := s.db.QueryRow("SELECT record FROM runs WHERE id = ?", runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{RunID: runID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to deserialize run record: %w", err)
	}
	return &rec, nil
}

// ListRuns returns all runs ordered by creation time.
func (s *SQLiteStore) ListRuns() ([]RunInfo, error) {
	rows, err := s.db.Query(`
		SELECT id, status, length, iterations, created_at, rule, cities, instance_path
		FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	infos := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		var created int64
		if err := rows.Scan(&info.RunID, &info.Status, &info.Length, &info.Iterations,
			&created, &info.Rule, &info.Cities, &info.InstancePath); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		info.Timestamp = time.Unix(0, created)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return infos, nil
}

// DeleteRun removes the row and any on-disk artifacts for the run.
func (s *SQLiteStore) DeleteRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	res, err := s.db.Exec("DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return &NotFoundError{RunID: runID}
	}

	if err := os.RemoveAll(RunDir(s.baseDir, runID)); err != nil {
		slog.Warn("Failed to remove run artifacts", "runID", runID, "error", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
