package models

import "time"

// SyncPassResult summarizes one completed sync pass. The per-item log entries
// are the durable record; this is a snapshot for the dashboard.
type SyncPassResult struct {
	Synced      int       `json:"synced"`
	Conflicts   int       `json:"conflicts"`
	Errors      int       `json:"errors"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
