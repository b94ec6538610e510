package models

import "time"

// RunProgress is the live position of a backfill run, published while the
// run iterates its work list.
type RunProgress struct {
	RunID       string    `json:"run_id"`
	CurrentDate string    `json:"current_date"`
	TotalDays   int       `json:"total_days"`
	Processed   int       `json:"processed"`
	Skipped     int       `json:"skipped"`
	Remaining   int       `json:"remaining"`
	UpdatedAt   time.Time `json:"updated_at"`
}
