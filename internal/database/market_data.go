package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

// InsertDailyBars persists one trading day's bars to the market_data fact
// table. The day's existing rows are deleted first inside the same
// transaction, so re-running a previously failed day never leaves
// duplicate rows behind. Returns the number of rows inserted.
func (db *DB) InsertDailyBars(ctx context.Context, bars []models.Bar, date time.Time) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM market_data WHERE date = $1`, date); err != nil {
		return 0, fmt.Errorf("failed to clear existing rows for %s: %w", date.Format("2006-01-02"), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_data ("T", v, vw, o, c, h, l, ts, n, date, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// ingested_at is assigned at write time so retried loads get a fresh
	// ingestion timestamp.
	ingestedAt := time.Now().UTC()
	for _, bar := range bars {
		_, err := stmt.ExecContext(ctx,
			bar.Ticker, bar.Volume, bar.VWAP, bar.Open, bar.Close, bar.High, bar.Low,
			bar.Time(), bar.Transactions, date, ingestedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert bar for %s: %w", bar.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int64(len(bars)), nil
}

// CountRowsForDate returns the number of fact rows stored for a trade date
func (db *DB) CountRowsForDate(ctx context.Context, date time.Time) (int64, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_data WHERE date = $1`, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows for %s: %w", date.Format("2006-01-02"), err)
	}
	return count, nil
}
