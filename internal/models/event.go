package models

import "time"

// Ingestion event types published after a day reaches a terminal status.
const (
	EventDayCompleted = "DAY_COMPLETED"
	EventDayFailed    = "DAY_FAILED"
)

// IngestionEvent notifies downstream consumers (e.g. the transformation
// job) that a trading day finished loading.
type IngestionEvent struct {
	EventType    string    `json:"event_type"`
	RunID        string    `json:"run_id"`
	Date         string    `json:"date"`
	TotalTickers int       `json:"total_tickers"`
	RowsInserted int64     `json:"rows_inserted"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
