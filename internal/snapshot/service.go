package snapshot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/aggregator"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/collector"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/log"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/storage"
)

// Record caps applied unless a full scan is requested
const (
	DefaultRepositoryLimit  = 1000
	DefaultStarredRepoLimit = 500
)

// Options controls a single snapshot run
type Options struct {
	// Account is the login to snapshot. Empty means the authenticated user.
	Account   string
	FullScan  bool
	OutputDir string
}

// RunResult describes a completed run
type RunResult struct {
	RunID     string
	Account   string
	Summary   *domain.Summary
	OutputDir string
	Files     []string
}

// Service fetches an account's ecosystem and writes it to disk
type Service struct {
	collector   collector.Collector
	history     storage.Storage
	concurrency int
	now         func() time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithHistory records every run in store
func WithHistory(store storage.Storage) ServiceOption {
	return func(s *Service) {
		s.history = store
	}
}

// WithConcurrency sets how many categories are fetched at once
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the wall clock
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a snapshot service
func NewService(c collector.Collector, opts ...ServiceOption) *Service {
	s := &Service{
		collector:   c,
		concurrency: 3,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run fetches every category and writes the snapshot files.
// Either all files are replaced or none are.
func (s *Service) Run(ctx context.Context, opts Options) (*RunResult, error) {
	if opts.OutputDir == "" {
		return nil, apperrors.NewConfigError("output directory is required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := NewRunLock(opts.OutputDir)
	if err := lock.TryLock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("Failed to release snapshot lock", "path", lock.Path(), "error", err)
		}
	}()

	cred, err := s.verify(ctx)
	if err != nil {
		return nil, err
	}

	account := opts.Account
	if account == "" {
		account = cred.Login
	}

	run := &domain.SnapshotRun{
		ID:        uuid.New().String(),
		Account:   account,
		FullScan:  opts.FullScan,
		Status:    domain.RunStatusInProgress,
		StartedAt: s.now().UTC(),
	}
	s.recordStart(ctx, run)

	result, err := s.run(ctx, run, opts)
	s.recordFinish(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, run *domain.SnapshotRun, opts Options) (*RunResult, error) {
	log.Info("Starting snapshot", "run_id", run.ID, "account", run.Account, "full_scan", opts.FullScan)

	user, err := s.collector.GetUserInfo(ctx, run.Account)
	if err != nil {
		return nil, apperrors.WithCategory(err, "user_info")
	}

	snap, err := s.fetchAll(ctx, run.Account, opts.FullScan)
	if err != nil {
		return nil, err
	}
	snap.User = user

	now := s.now()
	for _, edge := range snap.Followers {
		edge.ObservedAt = now.UTC()
	}
	for _, edge := range snap.Following {
		edge.ObservedAt = now.UTC()
	}

	summary := aggregator.Summarize(run.Account, opts.FullScan, now, snap)
	run.Counts = summary.Counts

	files, err := encodeSnapshot(snap, summary)
	if err != nil {
		return nil, err
	}
	written, err := commitFiles(opts.OutputDir, files)
	if err != nil {
		return nil, err
	}

	log.Info("Snapshot written",
		"run_id", run.ID,
		"dir", opts.OutputDir,
		"organizations", summary.Counts.Organizations,
		"repositories", summary.Counts.Repositories,
		"followers", summary.Counts.Followers,
		"following", summary.Counts.Following,
		"starred_repos", summary.Counts.StarredRepos,
		"gists", summary.Counts.Gists,
	)

	return &RunResult{
		RunID:     run.ID,
		Account:   run.Account,
		Summary:   summary,
		OutputDir: opts.OutputDir,
		Files:     written,
	}, nil
}

func (s *Service) verify(ctx context.Context) (*domain.Credential, error) {
	cred, err := s.collector.VerifyCredential(ctx)
	if err != nil {
		return nil, err
	}
	if !cred.Classic {
		log.Warn("Token reports no OAuth scopes, skipping scope check", "login", cred.Login)
		return cred, nil
	}
	if missing := collector.MissingScopes(cred.Scopes); len(missing) > 0 {
		return nil, apperrors.NewAuthFailure(
			fmt.Sprintf("token is missing required scopes: %s", strings.Join(missing, ", ")), nil)
	}
	return cred, nil
}

// fetchAll fetches the six categories concurrently. The first failure cancels the rest.
func (s *Service) fetchAll(ctx context.Context, login string, fullScan bool) (*domain.Snapshot, error) {
	repoLimit, starredLimit := DefaultRepositoryLimit, DefaultStarredRepoLimit
	if fullScan {
		repoLimit, starredLimit = 0, 0
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		snap     domain.Snapshot
		mu       sync.Mutex
		firstErr error
	)
	fail := func(c domain.Category, err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = apperrors.WithCategory(err, string(c))
			cancel()
		}
	}

	tasks := map[domain.Category]func() error{
		domain.CategoryOrganizations: func() (err error) {
			snap.Organizations, err = s.collector.GetOrganizations(ctx, login)
			return err
		},
		domain.CategoryRepositories: func() (err error) {
			snap.Repositories, err = s.collector.GetRepositories(ctx, login, repoLimit)
			return err
		},
		domain.CategoryFollowers: func() (err error) {
			snap.Followers, err = s.collector.GetFollowers(ctx, login)
			return err
		},
		domain.CategoryFollowing: func() (err error) {
			snap.Following, err = s.collector.GetFollowing(ctx, login)
			return err
		},
		domain.CategoryStarredRepos: func() (err error) {
			snap.StarredRepos, err = s.collector.GetStarredRepos(ctx, login, starredLimit)
			return err
		},
		domain.CategoryGists: func() (err error) {
			snap.Gists, err = s.collector.GetGists(ctx, login)
			return err
		},
	}

	wp := workerpool.New(s.concurrency)
	for _, c := range domain.Categories {
		c, task := c, tasks[c]
		wp.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			log.Debug("Fetching category", "category", c, "login", login)
			if err := task(); err != nil {
				fail(c, err)
				return
			}
			log.Debug("Fetched category", "category", c, "count", snap.Len(c))
		})
	}
	wp.StopWait()

	if firstErr != nil {
		log.Error("Snapshot aborted", "category", apperrors.CategoryOf(firstErr), "error", firstErr)
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Service) recordStart(ctx context.Context, run *domain.SnapshotRun) {
	if s.history == nil {
		return
	}
	if err := s.history.SaveRun(ctx, run); err != nil {
		log.Warn("Failed to record snapshot run", "run_id", run.ID, "error", err)
	}
}

func (s *Service) recordFinish(ctx context.Context, run *domain.SnapshotRun, runErr error) {
	if s.history == nil {
		return
	}
	finished := s.now().UTC()
	run.FinishedAt = &finished
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.Error = runErr.Error()
	} else {
		run.Status = domain.RunStatusCompleted
	}
	// The caller's context may already be cancelled.
	if err := s.history.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("Failed to update snapshot run", "run_id", run.ID, "error", err)
	}
}
