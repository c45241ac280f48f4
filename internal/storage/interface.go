package storage

import (
	"context"
	"time"

	"github.com/samber/mo"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
)

// Storage is the abstract interface for the run history store
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, run *domain.SnapshotRun) error
	UpdateRun(ctx context.Context, run *domain.SnapshotRun) error
	GetRun(ctx context.Context, id string) (*domain.SnapshotRun, error)

	// GetLatestRun returns the most recent completed run for an account
	GetLatestRun(ctx context.Context, account string) (mo.Option[*domain.SnapshotRun], error)

	// ListRuns returns runs newest first. An empty account lists every account.
	ListRuns(ctx context.Context, account string, limit int) ([]*domain.SnapshotRun, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}

// RunRow is the row shape shared by the SQL adapters
type RunRow struct {
	ID         string     `db:"id"`
	Account    string     `db:"account"`
	FullScan   bool       `db:"full_scan"`
	Status     string     `db:"status"`
	Error      string     `db:"error"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	domain.Counts
}

// RunColumns lists the columns of the snapshot_runs table in insert order
var RunColumns = []string{
	"id",
	"account",
	"full_scan",
	"status",
	"error",
	"started_at",
	"finished_at",
	"organizations",
	"repositories",
	"followers",
	"following",
	"starred_repos",
	"gists",
}

// ToDomain converts a row to a domain run
func (r *RunRow) ToDomain() *domain.SnapshotRun {
	run := &domain.SnapshotRun{
		ID:        r.ID,
		Account:   r.Account,
		FullScan:  r.FullScan,
		Status:    domain.RunStatus(r.Status),
		Counts:    r.Counts,
		Error:     r.Error,
		StartedAt: r.StartedAt.UTC(),
	}
	if r.FinishedAt != nil {
		t := r.FinishedAt.UTC()
		run.FinishedAt = &t
	}
	return run
}

// FromDomain converts a domain run to a row
func FromDomain(run *domain.SnapshotRun) *RunRow {
	return &RunRow{
		ID:         run.ID,
		Account:    run.Account,
		FullScan:   run.FullScan,
		Status:     string(run.Status),
		Error:      run.Error,
		StartedAt:  run.StartedAt.UTC(),
		FinishedAt: run.FinishedAt,
		Counts:     run.Counts,
	}
}
