package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/mo"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot_runs (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		full_scan BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		organizations INTEGER NOT NULL DEFAULT 0,
		repositories INTEGER NOT NULL DEFAULT 0,
		followers INTEGER NOT NULL DEFAULT 0,
		following INTEGER NOT NULL DEFAULT 0,
		starred_repos INTEGER NOT NULL DEFAULT 0,
		gists INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_snapshot_runs_account ON snapshot_runs(account);
	CREATE INDEX IF NOT EXISTS idx_snapshot_runs_started_at ON snapshot_runs(started_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts a new run
func (s *sqliteStorage) SaveRun(ctx context.Context, run *domain.SnapshotRun) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(storage.RunColumns)), ", ")
	query := fmt.Sprintf(`INSERT INTO snapshot_runs (%s) VALUES (%s)`,
		strings.Join(storage.RunColumns, ", "), placeholders)

	row := storage.FromDomain(run)
	_, err := s.db.ExecContext(ctx, query,
		row.ID,
		row.Account,
		row.FullScan,
		row.Status,
		row.Error,
		row.StartedAt,
		row.FinishedAt,
		row.Organizations,
		row.Repositories,
		row.Followers,
		row.Following,
		row.StarredRepos,
		row.Gists,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// UpdateRun overwrites the mutable fields of a run
func (s *sqliteStorage) UpdateRun(ctx context.Context, run *domain.SnapshotRun) error {
	query := `
		UPDATE snapshot_runs
		SET status = ?, error = ?, finished_at = ?,
			organizations = ?, repositories = ?, followers = ?,
			following = ?, starred_repos = ?, gists = ?
		WHERE id = ?
	`
	row := storage.FromDomain(run)
	result, err := s.db.ExecContext(ctx, query,
		row.Status,
		row.Error,
		row.FinishedAt,
		row.Organizations,
		row.Repositories,
		row.Followers,
		row.Following,
		row.StarredRepos,
		row.Gists,
		row.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("run " + run.ID)
	}
	return nil
}

// GetRun returns a run by ID
func (s *sqliteStorage) GetRun(ctx context.Context, id string) (*domain.SnapshotRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM snapshot_runs WHERE id = ?`, strings.Join(storage.RunColumns, ", "))

	var row storage.RunRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("run " + id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return row.ToDomain(), nil
}

// GetLatestRun returns the most recent completed run for an account
func (s *sqliteStorage) GetLatestRun(ctx context.Context, account string) (mo.Option[*domain.SnapshotRun], error) {
	query := fmt.Sprintf(`
		SELECT %s FROM snapshot_runs
		WHERE account = ? AND status = ?
		ORDER BY started_at DESC
		LIMIT 1`, strings.Join(storage.RunColumns, ", "))

	var row storage.RunRow
	if err := s.db.GetContext(ctx, &row, query, account, string(domain.RunStatusCompleted)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*domain.SnapshotRun](), nil
		}
		return mo.None[*domain.SnapshotRun](), fmt.Errorf("failed to get latest run: %w", err)
	}
	return mo.Some(row.ToDomain()), nil
}

// ListRuns returns runs newest first
func (s *sqliteStorage) ListRuns(ctx context.Context, account string, limit int) ([]*domain.SnapshotRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM snapshot_runs`, strings.Join(storage.RunColumns, ", "))
	args := []interface{}{}
	if account != "" {
		query += ` WHERE account = ?`
		args = append(args, account)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []storage.RunRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*domain.SnapshotRun, 0, len(rows))
	for i := range rows {
		runs = append(runs, rows[i].ToDomain())
	}
	return runs, nil
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
