package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"avifsweep/internal/config"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "journal.db"))
}

// OpenPath opens a journal database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the journal database.
func (s *Store) Path() string {
	return s.path
}

// BeginRun inserts a new run row and returns its identifier.
func (s *Store) BeginRun(ctx context.Context, runUUID, root, reviewDir string, dryRun bool) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (run_uuid, root, review_dir, dry_run, started_at)
         VALUES (?, ?, ?, ?, ?)`,
		runUUID,
		root,
		reviewDir,
		boolToInt(dryRun),
		timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// RecordFile appends a per-file outcome row for the given run.
func (s *Store) RecordFile(ctx context.Context, runID int64, rec FileRecord) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO run_files (run_id, source_path, rel_path, outcome, sidecar, error, duration_ms, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		rec.SourcePath,
		rec.RelPath,
		string(rec.Outcome),
		rec.Sidecar,
		rec.Error,
		rec.Duration.Milliseconds(),
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert run file: %w", err)
	}
	return nil
}

// FinishRun stamps the end time and summary counts on a run.
func (s *Store) FinishRun(ctx context.Context, runID int64, discovered, converted, sidecars, failed int) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET finished_at = ?, discovered = ?, converted = ?, sidecars = ?, failed = ?
         WHERE id = ?`,
		timestamp,
		discovered,
		converted,
		sidecars,
		failed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first. A limit <= 0 uses 20.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_uuid, root, review_dir, dry_run, started_at, finished_at,
                discovered, converted, sidecars, failed
         FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			dryRun     int
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(
			&run.ID, &run.RunUUID, &run.Root, &run.ReviewDir, &dryRun,
			&startedAt, &finishedAt,
			&run.Discovered, &run.Converted, &run.Sidecars, &run.Failed,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.DryRun = dryRun != 0
		run.StartedAt = parseTimestamp(startedAt)
		if finishedAt.Valid {
			run.FinishedAt = parseTimestamp(finishedAt.String)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// FilesForRun returns the per-file rows recorded for a run, in insertion order.
func (s *Store) FilesForRun(ctx context.Context, runID int64) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT source_path, rel_path, outcome, sidecar, error, duration_ms
         FROM run_files WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var (
			rec        FileRecord
			outcome    string
			durationMS int64
		)
		if err := rows.Scan(&rec.SourcePath, &rec.RelPath, &outcome, &rec.Sidecar, &rec.Error, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		rec.Outcome = Outcome(outcome)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run files: %w", err)
	}
	return records, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
