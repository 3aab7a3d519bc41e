package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// Run is one invocation of deploy against a grid and network.
type Run struct {
	ID         string    `json:"id"`
	Grid       string    `json:"grid"`
	Network    string    `json:"network"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunRepo stores runs.
type RunRepo struct {
	DB *sql.DB
	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *RunRepo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Create inserts a new running run with a fresh ID.
func (r *RunRepo) Create(ctx context.Context, grid, network string) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Grid:      grid,
		Network:   network,
		Status:    RunRunning,
		StartedAt: r.now().UTC(),
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO runs (id, grid, network, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Grid, run.Network, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish records the final status of a run. runErr may be nil.
func (r *RunRepo) Finish(ctx context.Context, id string, status RunStatus, runErr error) error {
	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), nullString(msg), formatTime(r.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns the run with the given ID. A unique ID prefix is accepted.
func (r *RunRepo) Get(ctx context.Context, id string) (Run, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, grid, network, status, error, started_at, finished_at
		 FROM runs WHERE id = ? OR substr(id, 1, length(?)) = ?
		 ORDER BY id = ? DESC LIMIT 2`,
		id, id, id, id,
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch {
	case len(found) == 0:
		return Run{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	case found[0].ID == id, len(found) == 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("run ID prefix %q is ambiguous", id)
	}
}

// List returns runs, most recent first. limit <= 0 means no limit.
func (r *RunRepo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, grid, network, status, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(s scanner) (Run, error) {
	var (
		run                Run
		status, startedAt  string
		runErr, finishedAt sql.NullString
	)
	err := s.Scan(&run.ID, &run.Grid, &run.Network, &status, &runErr, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return run, ErrNotFound
	}
	if err != nil {
		return run, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(status)
	run.Error = runErr.String
	if run.StartedAt, err = parseTime("started_at", startedAt); err != nil {
		return run, err
	}
	if finishedAt.Valid {
		if run.FinishedAt, err = parseTime("finished_at", finishedAt.String); err != nil {
			return run, err
		}
	}
	return run, nil
}
