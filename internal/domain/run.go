package domain

import "time"

// RunStatus is the lifecycle state of a snapshot run
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// SnapshotRun records one invocation of the snapshot job
type SnapshotRun struct {
	ID         string     `json:"id"`
	Account    string     `json:"account"`
	FullScan   bool       `json:"full_scan"`
	Status     RunStatus  `json:"status"`
	Counts     Counts     `json:"counts"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
