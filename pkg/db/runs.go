package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/essay-ingest/models"
)

// Run is a row of the runs table.
type Run struct {
	RunID      string
	Mode       string
	ListingURL string
	StartedAt  time.Time
	FinishedAt *time.Time
	Phase      string
	Discovered int
	Skipped    int
	Ingested   int
	Failed     int
	Pruned     int
	IndexSize  int
	Committed  bool
	Error      string
}

// Duration returns the run's wall time, zero while it is still open.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StartRun inserts the run row when a run begins.
func (db *DB) StartRun(ctx context.Context, report *models.RunReport) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (run_id, mode, listing_url, started_at, phase)
		VALUES (?, ?, ?, ?, ?)
	`, report.RunID, string(report.Mode), report.ListingURL, report.StartedAt.UTC(), string(report.Phase))
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun stores the final phase and counts of a run.
func (db *DB) FinishRun(ctx context.Context, report *models.RunReport) error {
	result, err := db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, phase = ?, discovered = ?, skipped = ?, ingested = ?,
		    failed = ?, pruned = ?, index_size = ?, committed = ?, error_message = ?
		WHERE run_id = ?
	`, report.FinishedAt.UTC(), string(report.Phase), report.Discovered, report.Skipped, report.Ingested,
		report.Failed, report.Pruned, report.IndexSize, report.Committed, report.Error, report.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", report.RunID, models.ErrNotFound)
	}
	return nil
}

// RecordAttempt records a fetch attempt in fetch_attempts.
func (db *DB) RecordAttempt(ctx context.Context, a models.FetchAttempt) error {
	if a.At.IsZero() {
		a.At = time.Now()
	}
	var docID sql.NullString
	if a.DocumentID != "" {
		docID = sql.NullString{String: a.DocumentID, Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO fetch_attempts (run_id, document_id, url, accessed_at, status_code, error_type, success)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.RunID, docID, a.URL, a.At.UTC(), a.StatusCode, a.ErrorType, a.Success)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of 0 returns every run.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT run_id, mode, listing_url, started_at, finished_at, phase, discovered, skipped,
		       ingested, failed, pruned, index_size, committed, error_message
		FROM runs
		ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
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

// GetRun returns one run by id, or models.ErrNotFound.
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := db.QueryRowContext(ctx, `
		SELECT run_id, mode, listing_url, started_at, finished_at, phase, discovered, skipped,
		       ingested, failed, pruned, index_size, committed, error_message
		FROM runs
		WHERE run_id = ?
	`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListAttempts returns a run's fetch attempts in the order they were made.
func (db *DB) ListAttempts(ctx context.Context, runID string) ([]models.FetchAttempt, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, document_id, url, accessed_at, status_code, error_type, success
		FROM fetch_attempts
		WHERE run_id = ?
		ORDER BY attempt_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.FetchAttempt
	for rows.Next() {
		var a models.FetchAttempt
		var docID, errorType sql.NullString
		var statusCode sql.NullInt64
		if err := rows.Scan(&a.RunID, &docID, &a.URL, &a.At, &statusCode, &errorType, &a.Success); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.DocumentID = docID.String
		a.ErrorType = errorType.String
		a.StatusCode = int(statusCode.Int64)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var finished sql.NullTime
	var errMsg sql.NullString
	err := s.Scan(&run.RunID, &run.Mode, &run.ListingURL, &run.StartedAt, &finished, &run.Phase,
		&run.Discovered, &run.Skipped, &run.Ingested, &run.Failed, &run.Pruned, &run.IndexSize,
		&run.Committed, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}
