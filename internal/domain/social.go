package domain

import "time"

// SocialEdge is a directed follow relation between the account and another user.
// For followers the user follows the account, for following the account follows the user.
type SocialEdge struct {
	ID         string    `json:"id"`
	Login      string    `json:"login"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	AvatarURL  string    `json:"avatar_url"`
	ObservedAt time.Time `json:"observed_at"`
}

// Gist is a gist owned by the account
type Gist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Public      bool      `json:"public"`
	Files       []string  `json:"files"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserInfo describes the account being snapshotted
type UserInfo struct {
	ID                 string    `json:"id"`
	Login              string    `json:"login"`
	Name               string    `json:"name"`
	Bio                string    `json:"bio"`
	Company            string    `json:"company"`
	Location           string    `json:"location"`
	URL                string    `json:"url"`
	CreatedAt          time.Time `json:"created_at"`
	TotalFollowers     int       `json:"total_followers"`
	TotalFollowing     int       `json:"total_following"`
	TotalRepositories  int       `json:"total_repositories"`
	TotalStarredRepos  int       `json:"total_starred_repos"`
	TotalOrganizations int       `json:"total_organizations"`
	TotalGists         int       `json:"total_gists"`
}

// Credential describes the authenticated token
type Credential struct {
	Login  string
	Scopes []string
	// Classic is false when the API reported no OAuth scopes (fine-grained and app tokens)
	Classic bool
}
