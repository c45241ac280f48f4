package domain

import "time"

// Visibility values for repositories
const (
	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityInternal = "internal"
)

// Organization represents an organization the account belongs to
type Organization struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	Role         string    `json:"role"` // "admin" or "member"
	Members      int       `json:"members"`
	Repositories int       `json:"repositories"`
	Teams        int       `json:"teams"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository represents a repository visible to the account
type Repository struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	NameWithOwner    string     `json:"name_with_owner"`
	Owner            string     `json:"owner"`
	Description      string     `json:"description"`
	URL              string     `json:"url"`
	Visibility       string     `json:"visibility"`
	IsFork           bool       `json:"is_fork"`
	IsArchived       bool       `json:"is_archived"`
	PrimaryLanguage  string     `json:"primary_language"`
	Stars            int        `json:"stars"`
	Forks            int        `json:"forks"`
	OpenIssues       int        `json:"open_issues"`
	OpenPullRequests int        `json:"open_pull_requests"`
	DefaultBranch    string     `json:"default_branch"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	PushedAt         *time.Time `json:"pushed_at"`
}

// IsPrivate reports whether the repository is not publicly visible
func (r *Repository) IsPrivate() bool {
	return r.Visibility != VisibilityPublic
}

// StarredRepo is a repository the account has starred
type StarredRepo struct {
	ID              string    `json:"id"`
	NameWithOwner   string    `json:"name_with_owner"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	Stars           int       `json:"stars"`
	Forks           int       `json:"forks"`
	PrimaryLanguage string    `json:"primary_language"`
	StarredAt       time.Time `json:"starred_at"`
}
