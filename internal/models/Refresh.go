package models

import "time"

// RefreshResult is what one refresh of an account reports back.
type RefreshResult struct {
	RunID              string             `json:"run_id"`
	AccountID          string             `json:"username"`
	Diff               DiffResult         `json:"diff"`
	History            []DailyCountRecord `json:"history"`
	WeeklyChange       int                `json:"weekly_change"`
	FirstRun           bool               `json:"first_run"`
	CapturedAt         time.Time          `json:"timestamp"`
	PreviousCapturedAt *time.Time         `json:"previous_timestamp,omitempty"`
}
