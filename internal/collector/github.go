package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/log"
)

const defaultPageSize = 100

// Options configures the GitHub collector
type Options struct {
	Token      string
	GraphQLURL string // defaults to https://api.github.com/graphql
	RESTURL    string // defaults to https://api.github.com/

	// Timeout bounds every single HTTP request
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// MinDelay spaces consecutive requests
	MinDelay time.Duration
	PageSize int

	// Transport is the base transport, mostly for tests
	Transport http.RoundTripper
}

// githubCollector implements Collector using the GitHub GraphQL API
type githubCollector struct {
	graphql     *githubv4.Client
	rest        *github.Client
	rateLimiter RateLimiter
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	pageSize    int
}

// NewGitHubCollector creates a new GitHub collector
func NewGitHubCollector(opts Options) (Collector, error) {
	if opts.Token == "" {
		return nil, apperrors.NewAuthFailure("GitHub token is required", nil)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.PageSize <= 0 || opts.PageSize > defaultPageSize {
		opts.PageSize = defaultPageSize
	}

	rateLimiter := NewRateLimiter(opts.MinDelay)
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   newStatusTransport(opts.Transport, rateLimiter),
		},
	}

	gql := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		gql = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}

	rest := github.NewClient(httpClient)
	if opts.RESTURL != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.RESTURL, "/") + "/")
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid GitHub API URL %q: %v", opts.RESTURL, err))
		}
		rest.BaseURL = base
	}

	return &githubCollector{
		graphql:     gql,
		rest:        rest,
		rateLimiter: rateLimiter,
		timeout:     opts.Timeout,
		maxRetries:  opts.MaxRetries,
		retryDelay:  opts.RetryDelay,
		pageSize:    opts.PageSize,
	}, nil
}

// VerifyCredential checks the token against the REST API and reports its scopes.
// Whether the scopes are sufficient is left to the caller.
func (c *githubCollector) VerifyCredential(ctx context.Context) (*domain.Credential, error) {
	var (
		user *github.User
		resp *github.Response
	)
	err := c.do(ctx, func(reqCtx context.Context) error {
		var err error
		user, resp, err = c.rest.Users.Get(reqCtx, "")
		return err
	})
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusForbidden {
			return nil, apperrors.NewAuthFailure("credential cannot read the authenticated user", err)
		}
		return nil, classify(ctx, err)
	}

	cred := &domain.Credential{Login: user.GetLogin()}
	header, reported := resp.Header["X-Oauth-Scopes"]
	if !reported {
		return cred, nil
	}

	cred.Classic = true
	cred.Scopes = ParseScopes(strings.Join(header, ","))
	return cred, nil
}

// GetUserInfo retrieves the profile of the account
func (c *githubCollector) GetUserInfo(ctx context.Context, login string) (*domain.UserInfo, error) {
	var q userInfoQuery
	if err := c.query(ctx, &q, map[string]interface{}{"login": githubv4.String(login)}); err != nil {
		return nil, err
	}
	if q.User == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user %q", login))
	}

	u := q.User
	return &domain.UserInfo{
		ID:                 nodeID(u.ID),
		Login:              u.Login,
		Name:               u.Name,
		Bio:                u.Bio,
		Company:            u.Company,
		Location:           u.Location,
		URL:                u.URL,
		CreatedAt:          u.CreatedAt.UTC(),
		TotalFollowers:     u.Followers.TotalCount,
		TotalFollowing:     u.Following.TotalCount,
		TotalRepositories:  u.Repositories.TotalCount,
		TotalStarredRepos:  u.StarredRepositories.TotalCount,
		TotalOrganizations: u.Organizations.TotalCount,
		TotalGists:         u.Gists.TotalCount,
	}, nil
}

// GetOrganizations retrieves the organizations the account belongs to
func (c *githubCollector) GetOrganizations(ctx context.Context, login string) ([]*domain.Organization, error) {
	return paginate(ctx, c, login, 0, func(vars map[string]interface{}) ([]*domain.Organization, pageInfo, error) {
		var q organizationsQuery
		if err := c.query(ctx, &q, vars); err != nil {
			return nil, pageInfo{}, err
		}
		if q.User == nil {
			return nil, pageInfo{}, apperrors.NewNotFoundError(fmt.Sprintf("user %q", login))
		}
		conn := q.User.Organizations
		out := make([]*domain.Organization, 0, len(conn.Nodes))
		for _, n := range conn.Nodes {
			out = append(out, n.toDomain())
		}
		return out, conn.PageInfo, nil
	})
}

// GetRepositories retrieves repositories visible to the account
func (c *githubCollector) GetRepositories(ctx context.Context, login string, limit int) ([]*domain.Repository, error) {
	return paginate(ctx, c, login, limit, func(vars map[string]interface{}) ([]*domain.Repository, pageInfo, error) {
		var q repositoriesQuery
		if err := c.query(ctx, &q, vars); err != nil {
			return nil, pageInfo{}, err
		}
		if q.User == nil {
			return nil, pageInfo{}, apperrors.NewNotFoundError(fmt.Sprintf("user %q", login))
		}
		conn := q.User.Repositories
		out := make([]*domain.Repository, 0, len(conn.Nodes))
		for _, n := range conn.Nodes {
			out = append(out, n.toDomain())
		}
		return out, conn.PageInfo, nil
	})
}

// GetFollowers retrieves the users following the account
func (c *githubCollector) GetFollowers(ctx context.Context, login string) ([]*domain.SocialEdge, error) {
	return paginate(ctx, c, login, 0, func(vars map[string]interface{}) ([]*domain.SocialEdge, pageInfo, error) {
		var q followersQuery
		if err := c.query(ctx, &q, vars); err != nil {
			return nil, pageInfo{}, err
		}
		if q.User == nil {
			return nil, pageInfo{}, apperrors.NewNotFoundError(fmt.Sprintf("user %q", login))
		}
		conn := q.User.Followers
		out := make([]*domain.SocialEdge, 0, len(conn.Nodes))
		for _, n := range conn.Nodes {
			out = append(out, n.toDomain())
		}
		return out, conn.PageInfo, nil
	})
}

// GetFollowing retrieves the users the account follows
func (c *githubCollector) GetFollowing(ctx context.Context, login string) ([]*domain.SocialEdge, error) {
	return paginate(ctx, c, login, 0, func(vars map[string]interface{}) ([]*domain.SocialEdge, pageInfo, error) {
		var q followingQuery
		if err := c.query(ctx, &q, vars); err != nil {
			return nil, pageInfo{}, err
		}
		if q.User == nil {
			return nil, pageInfo{}, apperrors.NewNotFoundError(fmt.Sprintf("user %q", login))
		}
		conn := q.User.Following
		out := make([]*domain.SocialEdge, 0, len(conn.Nodes))
		for _, n := range conn.Nodes {
			out = append(out, n.toDomain())
		}
		return out, conn.PageInfo, nil
	})
}

// GetStarredRepos retrieves starred repositories
func (c *githubCollector) GetStarredRepos(ctx context.Context, login string, limit int) ([]*domain.StarredRepo, error) {
	return paginate(ctx, c, login, limit, func(vars map[string]interface{}) ([]*domain.StarredRepo, pageInfo, error) {
		var q starredQuery
		if err := c.query(ctx, &q, vars); err != nil {
			return nil, pageInfo{}, err
		}
		if q.User == nil {
			return nil, pageInfo{}, apperrors.NewNotFoundError(fmt.Sprintf("user %q", login))
		}
		conn := q.User.StarredRepositories
		out := make([]*domain.StarredRepo, 0, len(conn.Edges))
		for _, e := range conn.Edges {
			out = append(out, e.toDomain())
		}
		return out, conn.PageInfo, nil
	})
}

// GetGists retrieves the account's gists
func (c *githubCollector) GetGists(ctx context.Context, login string) ([]*domain.Gist, error) {
	return paginate(ctx, c, login, 0, func(vars map[string]interface{}) ([]*domain.Gist, pageInfo, error) {
		var q gistsQuery
		if err := c.query(ctx, &q, vars); err != nil {
			return nil, pageInfo{}, err
		}
		if q.User == nil {
			return nil, pageInfo{}, apperrors.NewNotFoundError(fmt.Sprintf("user %q", login))
		}
		conn := q.User.Gists
		out := make([]*domain.Gist, 0, len(conn.Nodes))
		for _, n := range conn.Nodes {
			out = append(out, n.toDomain())
		}
		return out, conn.PageInfo, nil
	})
}

// paginate walks a connection with cursor pagination until it is exhausted
// or limit records have been collected.
func paginate[T any](ctx context.Context, c *githubCollector, login string, limit int, fetch func(vars map[string]interface{}) ([]T, pageInfo, error)) ([]T, error) {
	var all []T
	var cursor *githubv4.String

	for {
		pageSize := c.pageSize
		if limit > 0 && limit-len(all) < pageSize {
			pageSize = limit - len(all)
		}

		items, page, err := fetch(map[string]interface{}{
			"login":    githubv4.String(login),
			"pageSize": githubv4.Int(pageSize),
			"cursor":   cursor,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		log.Debug("fetched page", "login", login, "items", len(items), "total", len(all))

		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		if !page.HasNextPage {
			return all, nil
		}
		// A page that claims more data must move the cursor forward.
		if len(items) == 0 || page.EndCursor == "" || (cursor != nil && page.EndCursor == *cursor) {
			return nil, apperrors.NewSerializationFailure("pagination cursor did not advance", nil)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := page.EndCursor
		cursor = &next
	}
}

// query runs one GraphQL query with rate limiting, a per-request timeout and retries
func (c *githubCollector) query(ctx context.Context, q interface{}, vars map[string]interface{}) error {
	return c.do(ctx, func(reqCtx context.Context) error {
		// Start every attempt from an empty result so retries do not append to partial data
		v := reflect.ValueOf(q).Elem()
		v.Set(reflect.Zero(v.Type()))
		return c.graphql.Query(reqCtx, q, vars)
	})
}

// do wraps a single API call with the shared rate limiter, timeout and retry policy
func (c *githubCollector) do(ctx context.Context, call func(reqCtx context.Context) error) error {
	return Retry(ctx, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := call(reqCtx); err != nil {
			return classify(ctx, err)
		}
		return nil
	},
		WithMaxRetries(c.maxRetries),
		WithInitialDelay(c.retryDelay),
		WithRetryIf(apperrors.IsRetryable),
	)
}

// classify maps client errors onto the error taxonomy
func classify(ctx context.Context, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewRemoteAPIFailure("request timed out", err, true)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperrors.NewSerializationFailure("unexpected response shape", err)
	}

	var ghRate *github.RateLimitError
	var ghAbuse *github.AbuseRateLimitError
	if errors.As(err, &ghRate) || errors.As(err, &ghAbuse) {
		return apperrors.NewRateLimitedError(err.Error())
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return apperrors.NewRemoteAPIFailure("transport error", err, urlErr.Timeout())
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"):
		return apperrors.NewRateLimitedError(err.Error())
	case strings.Contains(msg, "could not resolve to a user"):
		return &apperrors.AppError{Code: apperrors.ErrCodeNotFound, Message: "account not found", Err: err}
	case strings.Contains(msg, "doesn't exist in any of"), strings.Contains(msg, "cannot unmarshal"):
		return apperrors.NewSerializationFailure("unexpected response shape", err)
	case strings.Contains(msg, "non-200 ok status code"):
		return apperrors.NewRemoteAPIFailure("unexpected HTTP status", err, false)
	}
	return apperrors.NewRemoteAPIFailure("GraphQL request failed", err, false)
}
