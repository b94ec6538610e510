package models

import "time"

// Checkpoint statuses. A checkpoint is created as started and mutated in
// place to exactly one terminal status.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Checkpoint records the outcome of processing one trading day within one
// backfill run, keyed by (run_id, api_date).
type Checkpoint struct {
	RunID        string     `json:"run_id"`
	APIDate      time.Time  `json:"api_date"`
	Status       string     `json:"status"`
	TotalTickers int        `json:"total_tickers"`
	RowsInserted int64      `json:"rows_inserted"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// IngestionStats summarizes completed checkpoints for monitoring.
type IngestionStats struct {
	DaysProcessed    int64     `json:"days_processed"`
	TotalRows        int64     `json:"total_rows"`
	AvgTickersPerDay float64   `json:"avg_tickers_per_day"`
	EarliestDate     time.Time `json:"earliest_date"`
	LatestDate       time.Time `json:"latest_date"`
	FailedRuns       int64     `json:"failed_runs"`
}
