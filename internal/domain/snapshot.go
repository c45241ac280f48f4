package domain

import "time"

// Snapshot holds every category fetched in one run
type Snapshot struct {
	User          *UserInfo
	Organizations []*Organization
	Repositories  []*Repository
	Followers     []*SocialEdge
	Following     []*SocialEdge
	StarredRepos  []*StarredRepo
	Gists         []*Gist
}

// Len returns the number of records held for a category
func (s *Snapshot) Len(c Category) int {
	switch c {
	case CategoryOrganizations:
		return len(s.Organizations)
	case CategoryRepositories:
		return len(s.Repositories)
	case CategoryFollowers:
		return len(s.Followers)
	case CategoryFollowing:
		return len(s.Following)
	case CategoryStarredRepos:
		return len(s.StarredRepos)
	case CategoryGists:
		return len(s.Gists)
	}
	return 0
}

// Records returns the records of a category as a JSON-serializable value.
// Empty categories are returned as empty slices so they encode as [].
func (s *Snapshot) Records(c Category) interface{} {
	switch c {
	case CategoryOrganizations:
		return nonNil(s.Organizations)
	case CategoryRepositories:
		return nonNil(s.Repositories)
	case CategoryFollowers:
		return nonNil(s.Followers)
	case CategoryFollowing:
		return nonNil(s.Following)
	case CategoryStarredRepos:
		return nonNil(s.StarredRepos)
	case CategoryGists:
		return nonNil(s.Gists)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Counts holds the number of records per category
type Counts struct {
	Organizations int `json:"organizations" db:"organizations"`
	Repositories  int `json:"repositories" db:"repositories"`
	Followers     int `json:"followers" db:"followers"`
	Following     int `json:"following" db:"following"`
	StarredRepos  int `json:"starred_repos" db:"starred_repos"`
	Gists         int `json:"gists" db:"gists"`
}

// Get returns the count of a category
func (c Counts) Get(cat Category) int {
	switch cat {
	case CategoryOrganizations:
		return c.Organizations
	case CategoryRepositories:
		return c.Repositories
	case CategoryFollowers:
		return c.Followers
	case CategoryFollowing:
		return c.Following
	case CategoryStarredRepos:
		return c.StarredRepos
	case CategoryGists:
		return c.Gists
	}
	return 0
}

// Summary is the aggregate record written after every category succeeded
type Summary struct {
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	FullScan  bool      `json:"full_scan"`
	Counts    Counts    `json:"counts"`
}
