package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/granola-sync/internal/apperr"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one recorded sync pass.
type Run struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       string     `json:"status"`
	SyncedCount  int        `json:"synced_count"`
	SkippedCount int        `json:"skipped_count"`
	FailedCount  int        `json:"failed_count"`
	Error        string     `json:"error,omitempty"`
}

// StartRun inserts a running pass and returns its id.
func (db *DB) StartRun() (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`INSERT INTO sync_runs (id, started_at, status) VALUES (?, ?, ?)`,
		id, time.Now().UTC(), RunRunning)
	if err != nil {
		return "", fmt.Errorf("index: start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the outcome of run id.
func (db *DB) FinishRun(id string, r Run) error {
	res, err := db.conn.Exec(`
		UPDATE sync_runs
		SET finished_at = ?, status = ?, synced_count = ?, skipped_count = ?, failed_count = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC(), r.Status, r.SyncedCount, r.SkippedCount, r.FailedCount, r.Error, id)
	if err != nil {
		return fmt.Errorf("index: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("index: finish run %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, status, synced_count, skipped_count, failed_count, error
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// LastRun returns the most recently started run or apperr.ErrNotFound.
func (db *DB) LastRun() (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, status, synced_count, skipped_count, failed_count, error
		FROM sync_runs ORDER BY started_at DESC LIMIT 1`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: last run: %w", err)
	}
	return r, nil
}

func scanRun(s scanner) (*Run, error) {
	var (
		r        Run
		finished sql.NullTime
	)
	if err := s.Scan(&r.ID, &r.StartedAt, &finished, &r.Status, &r.SyncedCount, &r.SkippedCount, &r.FailedCount, &r.Error); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
