package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

// ErrCheckpointNotFound is returned when a terminal update targets a
// (run_id, api_date) pair that was never recorded as started. That
// indicates broken start/terminal bracketing and must surface.
var ErrCheckpointNotFound = errors.New("checkpoint record not found")

// CompletedDates returns every api_date with a completed checkpoint from
// any run, keyed by ISO date string.
func (db *DB) CompletedDates(ctx context.Context) (map[string]bool, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT api_date
		FROM ingestion_checkpoints
		WHERE status = $1
		ORDER BY api_date
	`, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed dates: %w", err)
	}
	defer rows.Close()

	completed := make(map[string]bool)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan completed date: %w", err)
		}
		completed[d.Format("2006-01-02")] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read completed dates: %w", err)
	}
	return completed, nil
}

// RecordStart inserts a started checkpoint for (runID, date). Start
// records are append-only; terminal statuses mutate them in place via
// RecordCompleted or RecordFailed.
func (db *DB) RecordStart(ctx context.Context, runID string, date time.Time, totalTickers int) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ingestion_checkpoints (run_id, api_date, status, total_tickers, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, runID, date, models.StatusStarted, totalTickers, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record start checkpoint: %w", err)
	}
	return nil
}

// RecordCompleted marks the (runID, date) checkpoint completed
func (db *DB) RecordCompleted(ctx context.Context, runID string, date time.Time, totalTickers int, rowsInserted int64) error {
	return db.recordTerminal(ctx, runID, date, models.StatusCompleted, totalTickers, rowsInserted, "")
}

// RecordFailed marks the (runID, date) checkpoint failed
func (db *DB) RecordFailed(ctx context.Context, runID string, date time.Time, errorMessage string) error {
	return db.recordTerminal(ctx, runID, date, models.StatusFailed, 0, 0, errorMessage)
}

func (db *DB) recordTerminal(ctx context.Context, runID string, date time.Time, status string, totalTickers int, rowsInserted int64, errorMessage string) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `
		UPDATE ingestion_checkpoints
		SET status = $1,
		    total_tickers = CASE WHEN $2 > 0 THEN $2 ELSE total_tickers END,
		    rows_inserted = $3,
		    completed_at = $4,
		    error_message = NULLIF($5, '')
		WHERE run_id = $6 AND api_date = $7
	`, status, totalTickers, rowsInserted, time.Now().UTC(), errorMessage, runID, date)
	if err != nil {
		return fmt.Errorf("failed to record %s checkpoint: %w", status, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s checkpoint update: %w", status, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: run %s date %s", ErrCheckpointNotFound, runID, date.Format("2006-01-02"))
	}
	return nil
}

// IngestionStats summarizes completed checkpoints. Returns nil when no
// day has completed yet.
func (db *DB) IngestionStats(ctx context.Context) (*models.IngestionStats, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT COUNT(DISTINCT api_date),
		       COALESCE(SUM(rows_inserted), 0),
		       COALESCE(AVG(total_tickers), 0),
		       MIN(api_date),
		       MAX(api_date)
		FROM ingestion_checkpoints
		WHERE status = $1
	`
	var stats models.IngestionStats
	var earliest, latest sql.NullTime

	err := db.conn.QueryRowContext(ctx, query, models.StatusCompleted).Scan(
		&stats.DaysProcessed, &stats.TotalRows, &stats.AvgTickersPerDay, &earliest, &latest,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingestion stats: %w", err)
	}
	if stats.DaysProcessed == 0 {
		return nil, nil
	}
	if earliest.Valid {
		stats.EarliestDate = earliest.Time
	}
	if latest.Valid {
		stats.LatestDate = latest.Time
	}

	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ingestion_checkpoints WHERE status = $1
	`, models.StatusFailed).Scan(&stats.FailedRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to count failed runs: %w", err)
	}

	return &stats, nil
}

// RecentCheckpoints returns the most recently started checkpoints, newest
// first, for the ops API.
func (db *DB) RecentCheckpoints(ctx context.Context, limit int) ([]*models.Checkpoint, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT run_id, api_date, status, COALESCE(total_tickers, 0),
		       COALESCE(rows_inserted, 0), started_at, completed_at, error_message
		FROM ingestion_checkpoints
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []*models.Checkpoint
	for rows.Next() {
		var c models.Checkpoint
		var completedAt sql.NullTime
		var errorMessage sql.NullString

		err := rows.Scan(
			&c.RunID, &c.APIDate, &c.Status, &c.TotalTickers,
			&c.RowsInserted, &c.StartedAt, &completedAt, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}

		if completedAt.Valid {
			c.CompletedAt = &completedAt.Time
		}
		if errorMessage.Valid {
			c.ErrorMessage = errorMessage.String
		}
		checkpoints = append(checkpoints, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkpoints: %w", err)
	}
	return checkpoints, nil
}
