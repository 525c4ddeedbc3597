package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Run is one dataset build run recorded in the catalog.
type Run struct {
	ID         string
	Builder    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Rows       int64
	Status     string // "running", "completed", "failed"
	Error      string
}

// Run status values.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	builder     TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL DEFAULT 0,
	rows        INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_builder ON runs(builder, started_at);
`

// Catalog records dataset build runs in a SQLite database, so operators can
// see what was built when and how it ended.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (or creates) the run catalog at dbPath.
func OpenCatalog(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// BeginRun records the start of a build run and returns its ID.
func (c *Catalog) BeginRun(ctx context.Context, builder string) (string, error) {
	id := uuid.NewString()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (id, builder, started_at, status) VALUES (?, ?, ?, ?)`,
		id, builder, time.Now().UnixMilli(), RunRunning)
	if err != nil {
		return "", fmt.Errorf("recording run start: %w", err)
	}
	return id, nil
}

// FinishRun marks a run completed with its final row count.
func (c *Catalog) FinishRun(ctx context.Context, id string, rows int64) error {
	return c.endRun(ctx, id, rows, RunCompleted, "")
}

// FailRun marks a run failed with the given error.
func (c *Catalog) FailRun(ctx context.Context, id string, rows int64, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return c.endRun(ctx, id, rows, RunFailed, msg)
}

func (c *Catalog) endRun(ctx context.Context, id string, rows int64, status, errMsg string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, rows = ?, status = ?, error = ? WHERE id = ?`,
		time.Now().UnixMilli(), rows, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("recording run end: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun retrieves a single run by ID.
func (c *Catalog) GetRun(ctx context.Context, id string) (*Run, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, builder, started_at, finished_at, rows, status, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, err
}

// ListRuns returns the most recent runs for a builder, newest first, up to
// limit. An empty builder matches all builders.
func (c *Catalog) ListRuns(ctx context.Context, builder string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, builder, started_at, finished_at, rows, status, error FROM runs`
	args := []any{}
	if builder != "" {
		query += ` WHERE builder = ?`
		args = append(args, builder)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// LastCompletedRun returns the most recent completed run for a builder, or
// nil if none exists.
func (c *Catalog) LastCompletedRun(ctx context.Context, builder string) (*Run, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, builder, started_at, finished_at, rows, status, error
		 FROM runs WHERE builder = ? AND status = ?
		 ORDER BY started_at DESC LIMIT 1`, builder, RunCompleted)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*Run, error) {
	var run Run
	var startedAt, finishedAt int64
	if err := r.Scan(&run.ID, &run.Builder, &startedAt, &finishedAt,
		&run.Rows, &run.Status, &run.Error); err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(startedAt).UTC()
	if finishedAt > 0 {
		run.FinishedAt = time.UnixMilli(finishedAt).UTC()
	}
	return &run, nil
}
