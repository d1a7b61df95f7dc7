/*
PURPOSE:
  SQLite run history. Every run can be appended to a local database so past
  runs stay browsable and can be re-exported as comparison artifacts.

REQUIREMENTS:
  User-specified:
  - Optional (--history / history_db).

  Implementation-discovered:
  - Results keep their run order (position column); comparison pairs by position.
  - Pure-Go driver (modernc.org/sqlite), no cgo.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (run, history)
  - Consumes: internal/model.Result

ERROR HANDLING:
  - Every error is wrapped with the operation that failed.
  - ErrRunNotFound for unknown run ids.

IMPLEMENTATION RULES:
  - A run is written in a single transaction.

USAGE:
  h, err := store.Open(ctx, "history.db")
  defer h.Close()
  err = h.Record(ctx, runID, artifactPath, time.Now(), results)

SELF-HEALING INSTRUCTIONS:
  - Schema changes need a new schemaVersion and a migration in migrate().

RELATED FILES:
  - internal/output/json.go

MAINTENANCE:
  - Keep columns in sync with model.Result.
*/

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daryltucker/memory-runner/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrRunNotFound is returned when a run id has no stored results.
var ErrRunNotFound = errors.New("run not found")

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL,
	runtime_label   TEXT NOT NULL,
	runtime_version TEXT NOT NULL,
	artifact        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS results (
	run_id            TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position          INTEGER NOT NULL,
	scenario_id       TEXT NOT NULL,
	size_mb           REAL NOT NULL,
	iterations        INTEGER NOT NULL,
	allocation_s      REAL NOT NULL,
	allocate_free_s   REAL NOT NULL,
	writes_s          REAL NOT NULL,
	reads_s           REAL NOT NULL,
	page_faults_minor INTEGER,
	page_faults_major INTEGER,
	timestamp         TEXT NOT NULL,
	runtime_label     TEXT NOT NULL,
	runtime_version   TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// Run summarizes one stored run.
type Run struct {
	ID             string
	CreatedAt      time.Time
	RuntimeLabel   string
	RuntimeVersion string
	Artifact       string
	Scenarios      int
}

// History is a SQLite-backed run history.
type History struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(ctx context.Context, path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	h := &History{db: db}
	if err := h.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) migrate(ctx context.Context) error {
	var version int
	if err := h.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := h.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := h.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores a run and its results in order.
func (h *History) Record(ctx context.Context, runID, artifact string, createdAt time.Time, results []model.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("record run %s: no results", runID)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	first := results[0]
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, runtime_label, runtime_version, artifact) VALUES (?, ?, ?, ?, ?)`,
		runID, createdAt.UTC().Format(time.RFC3339Nano), first.RuntimeLabel, first.RuntimeVersion, artifact,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results (
		run_id, position, scenario_id, size_mb, iterations,
		allocation_s, allocate_free_s, writes_s, reads_s,
		page_faults_minor, page_faults_major, timestamp, runtime_label, runtime_version
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		m := r.Metrics
		if _, err := stmt.ExecContext(ctx,
			runID, i, r.ScenarioID, r.SizeMB, r.Iterations,
			m.AllocationSeconds, m.AllocateAndFreeSeconds, m.WritesSeconds, m.ReadsSeconds,
			nullInt(m.PageFaultsMinor), nullInt(m.PageFaultsMajor),
			r.Timestamp, r.RuntimeLabel, r.RuntimeVersion,
		); err != nil {
			return fmt.Errorf("insert result %s/%s: %w", runID, r.ScenarioID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", runID, err)
	}
	return nil
}

// Runs lists stored runs, newest first.
func (h *History) Runs(ctx context.Context) ([]Run, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.runtime_label, r.runtime_version, r.artifact, COUNT(res.position)
		FROM runs r LEFT JOIN results res ON res.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var created string
		if err := rows.Scan(&run.ID, &created, &run.RuntimeLabel, &run.RuntimeVersion, &run.Artifact, &run.Scenarios); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the results of one run in their original order.
func (h *History) Results(ctx context.Context, runID string) ([]model.Result, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT scenario_id, size_mb, iterations,
		       allocation_s, allocate_free_s, writes_s, reads_s,
		       page_faults_minor, page_faults_major, timestamp, runtime_label, runtime_version
		FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results of %s: %w", runID, err)
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var r model.Result
		var minor, major sql.NullInt64
		if err := rows.Scan(
			&r.ScenarioID, &r.SizeMB, &r.Iterations,
			&r.Metrics.AllocationSeconds, &r.Metrics.AllocateAndFreeSeconds, &r.Metrics.WritesSeconds, &r.Metrics.ReadsSeconds,
			&minor, &major, &r.Timestamp, &r.RuntimeLabel, &r.RuntimeVersion,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Metrics.PageFaultsMinor = fromNull(minor)
		r.Metrics.PageFaultsMajor = fromNull(major)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return results, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return model.Int64Ptr(v.Int64)
}
