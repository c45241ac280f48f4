package collector

import (
	"context"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
)

// Collector defines the interface for fetching an account's ecosystem from GitHub.
// A limit of 0 means no limit.
type Collector interface {
	// VerifyCredential checks the token and returns the authenticated user and its scopes
	VerifyCredential(ctx context.Context) (*domain.Credential, error)

	// GetUserInfo retrieves the profile of the account
	GetUserInfo(ctx context.Context, login string) (*domain.UserInfo, error)

	// GetOrganizations retrieves the organizations the account belongs to
	GetOrganizations(ctx context.Context, login string) ([]*domain.Organization, error)

	// GetRepositories retrieves repositories visible to the account, most recently updated first
	GetRepositories(ctx context.Context, login string, limit int) ([]*domain.Repository, error)

	// GetFollowers retrieves the users following the account
	GetFollowers(ctx context.Context, login string) ([]*domain.SocialEdge, error)

	// GetFollowing retrieves the users the account follows
	GetFollowing(ctx context.Context, login string) ([]*domain.SocialEdge, error)

	// GetStarredRepos retrieves starred repositories, most recently starred first
	GetStarredRepos(ctx context.Context, login string, limit int) ([]*domain.StarredRepo, error)

	// GetGists retrieves the account's gists
	GetGists(ctx context.Context, login string) ([]*domain.Gist, error)
}
