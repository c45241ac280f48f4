package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
)

type fakeCollector struct {
	mu    sync.Mutex
	calls []string

	cred    *domain.Credential
	credErr error
	user    *domain.UserInfo

	orgs      []*domain.Organization
	repos     []*domain.Repository
	followers []*domain.SocialEdge
	following []*domain.SocialEdge
	starred   []*domain.StarredRepo
	gists     []*domain.Gist

	failOn map[domain.Category]error
}

func newFakeCollector() *fakeCollector {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return &fakeCollector{
		cred: &domain.Credential{
			Login:   "octocat",
			Scopes:  []string{"repo", "read:org", "user"},
			Classic: true,
		},
		user:   &domain.UserInfo{ID: "U_1", Login: "octocat", Name: "The Octocat", CreatedAt: created},
		failOn: map[domain.Category]error{},
	}
}

// withScenario fills 2 organizations, 5 repositories, 3 followers and no gists
func (f *fakeCollector) withScenario() *fakeCollector {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	f.orgs = []*domain.Organization{
		{ID: "O_1", Login: "github", Role: "member", Repositories: 10, CreatedAt: created},
		{ID: "O_2", Login: "octo-org", Role: "admin", Repositories: 3, CreatedAt: created},
	}
	f.repos = makeRepos(5)
	f.followers = makeEdges("follower", 3)
	f.following = makeEdges("followee", 1)
	f.starred = makeStarred(2)
	return f
}

func makeRepos(n int) []*domain.Repository {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repos := make([]*domain.Repository, n)
	for i := range repos {
		repos[i] = &domain.Repository{
			ID:            fmt.Sprintf("R_%d", i),
			Name:          fmt.Sprintf("repo-%d", i),
			NameWithOwner: fmt.Sprintf("octocat/repo-%d", i),
			Owner:         "octocat",
			Visibility:    domain.VisibilityPublic,
			CreatedAt:     base,
			UpdatedAt:     base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return repos
}

func makeEdges(prefix string, n int) []*domain.SocialEdge {
	edges := make([]*domain.SocialEdge, n)
	for i := range edges {
		login := fmt.Sprintf("%s-%d", prefix, i)
		edges[i] = &domain.SocialEdge{ID: "U_" + login, Login: login}
	}
	return edges
}

func makeStarred(n int) []*domain.StarredRepo {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	starred := make([]*domain.StarredRepo, n)
	for i := range starred {
		starred[i] = &domain.StarredRepo{
			ID:            fmt.Sprintf("S_%d", i),
			NameWithOwner: fmt.Sprintf("other/starred-%d", i),
			StarredAt:     base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return starred
}

func (f *fakeCollector) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCollector) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeCollector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func limited[T any](records []T, limit int) []T {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

func (f *fakeCollector) VerifyCredential(ctx context.Context) (*domain.Credential, error) {
	f.record("verify")
	return f.cred, f.credErr
}

func (f *fakeCollector) GetUserInfo(ctx context.Context, login string) (*domain.UserInfo, error) {
	f.record("user:" + login)
	if login != f.user.Login {
		return nil, apperrors.NewNotFoundError("user " + login)
	}
	return f.user, nil
}

func (f *fakeCollector) GetOrganizations(ctx context.Context, login string) ([]*domain.Organization, error) {
	f.record(string(domain.CategoryOrganizations))
	if err := f.failOn[domain.CategoryOrganizations]; err != nil {
		return nil, err
	}
	return f.orgs, nil
}

func (f *fakeCollector) GetRepositories(ctx context.Context, login string, limit int) ([]*domain.Repository, error) {
	f.record(string(domain.CategoryRepositories))
	if err := f.failOn[domain.CategoryRepositories]; err != nil {
		return nil, err
	}
	return limited(f.repos, limit), nil
}

func (f *fakeCollector) GetFollowers(ctx context.Context, login string) ([]*domain.SocialEdge, error) {
	f.record(string(domain.CategoryFollowers))
	if err := f.failOn[domain.CategoryFollowers]; err != nil {
		return nil, err
	}
	return copyEdges(f.followers), nil
}

func (f *fakeCollector) GetFollowing(ctx context.Context, login string) ([]*domain.SocialEdge, error) {
	f.record(string(domain.CategoryFollowing))
	if err := f.failOn[domain.CategoryFollowing]; err != nil {
		return nil, err
	}
	return copyEdges(f.following), nil
}

func (f *fakeCollector) GetStarredRepos(ctx context.Context, login string, limit int) ([]*domain.StarredRepo, error) {
	f.record(string(domain.CategoryStarredRepos))
	if err := f.failOn[domain.CategoryStarredRepos]; err != nil {
		return nil, err
	}
	return limited(f.starred, limit), nil
}

func (f *fakeCollector) GetGists(ctx context.Context, login string) ([]*domain.Gist, error) {
	f.record(string(domain.CategoryGists))
	if err := f.failOn[domain.CategoryGists]; err != nil {
		return nil, err
	}
	return f.gists, nil
}

// copyEdges returns fresh edges so observed_at stamping does not leak between runs
func copyEdges(edges []*domain.SocialEdge) []*domain.SocialEdge {
	if edges == nil {
		return nil
	}
	out := make([]*domain.SocialEdge, len(edges))
	for i, e := range edges {
		c := *e
		out[i] = &c
	}
	return out
}
