package collector

import (
	"strings"

	"github.com/shurcooL/githubv4"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
)

type pageInfo struct {
	EndCursor   githubv4.String
	HasNextPage bool
}

type totalCount struct {
	TotalCount int
}

type userInfoQuery struct {
	User *struct {
		ID                  githubv4.ID
		Login               string
		Name                string
		Bio                 string
		Company             string
		Location            string
		URL                 string
		CreatedAt           githubv4.DateTime
		Followers           totalCount
		Following           totalCount
		Repositories        totalCount
		StarredRepositories totalCount
		Organizations       totalCount
		Gists               totalCount
	} `graphql:"user(login: $login)"`
}

type organizationNode struct {
	ID                  githubv4.ID
	Login               string
	Name                string
	Description         string
	URL                 string
	CreatedAt           githubv4.DateTime
	ViewerCanAdminister bool
	MembersWithRole     totalCount
	Repositories        totalCount
	Teams               totalCount
}

type organizationsQuery struct {
	User *struct {
		Organizations struct {
			PageInfo pageInfo
			Nodes    []organizationNode
		} `graphql:"organizations(first: $pageSize, after: $cursor)"`
	} `graphql:"user(login: $login)"`
}

type repositoryNode struct {
	ID              githubv4.ID
	Name            string
	NameWithOwner   string
	Description     string
	URL             string
	Visibility      string
	IsFork          bool
	IsArchived      bool
	StargazerCount  int
	ForkCount       int
	CreatedAt       githubv4.DateTime
	UpdatedAt       githubv4.DateTime
	PushedAt        *githubv4.DateTime
	PrimaryLanguage *struct {
		Name string
	}
	DefaultBranchRef *struct {
		Name string
	}
	Owner struct {
		Login string
	}
	Issues       totalCount `graphql:"issues(states: OPEN)"`
	PullRequests totalCount `graphql:"pullRequests(states: OPEN)"`
}

type repositoriesQuery struct {
	User *struct {
		Repositories struct {
			PageInfo pageInfo
			Nodes    []repositoryNode
		} `graphql:"repositories(first: $pageSize, after: $cursor, ownerAffiliations: [OWNER, COLLABORATOR, ORGANIZATION_MEMBER], orderBy: {field: UPDATED_AT, direction: DESC})"`
	} `graphql:"user(login: $login)"`
}

type userNode struct {
	ID        githubv4.ID
	Login     string
	Name      string
	URL       string
	AvatarURL string
}

type followersQuery struct {
	User *struct {
		Followers struct {
			PageInfo pageInfo
			Nodes    []userNode
		} `graphql:"followers(first: $pageSize, after: $cursor)"`
	} `graphql:"user(login: $login)"`
}

type followingQuery struct {
	User *struct {
		Following struct {
			PageInfo pageInfo
			Nodes    []userNode
		} `graphql:"following(first: $pageSize, after: $cursor)"`
	} `graphql:"user(login: $login)"`
}

type starredEdge struct {
	StarredAt githubv4.DateTime
	Node      struct {
		ID              githubv4.ID
		NameWithOwner   string
		Description     string
		URL             string
		StargazerCount  int
		ForkCount       int
		PrimaryLanguage *struct {
			Name string
		}
	}
}

type starredQuery struct {
	User *struct {
		StarredRepositories struct {
			PageInfo pageInfo
			Edges    []starredEdge
		} `graphql:"starredRepositories(first: $pageSize, after: $cursor, orderBy: {field: STARRED_AT, direction: DESC})"`
	} `graphql:"user(login: $login)"`
}

type gistNode struct {
	ID          githubv4.ID
	Name        string
	Description string
	URL         string
	IsPublic    bool
	CreatedAt   githubv4.DateTime
	UpdatedAt   githubv4.DateTime
	Files       []struct {
		Name string
	} `graphql:"files(limit: 100)"`
}

type gistsQuery struct {
	User *struct {
		Gists struct {
			PageInfo pageInfo
			Nodes    []gistNode
		} `graphql:"gists(first: $pageSize, after: $cursor, privacy: ALL, orderBy: {field: UPDATED_AT, direction: DESC})"`
	} `graphql:"user(login: $login)"`
}

func nodeID(id githubv4.ID) string {
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}

func languageName(lang *struct{ Name string }) string {
	if lang == nil {
		return ""
	}
	return lang.Name
}

func (n organizationNode) toDomain() *domain.Organization {
	role := "member"
	if n.ViewerCanAdminister {
		role = "admin"
	}
	return &domain.Organization{
		ID:           nodeID(n.ID),
		Login:        n.Login,
		Name:         n.Name,
		Description:  n.Description,
		URL:          n.URL,
		Role:         role,
		Members:      n.MembersWithRole.TotalCount,
		Repositories: n.Repositories.TotalCount,
		Teams:        n.Teams.TotalCount,
		CreatedAt:    n.CreatedAt.UTC(),
	}
}

func (n repositoryNode) toDomain() *domain.Repository {
	repo := &domain.Repository{
		ID:               nodeID(n.ID),
		Name:             n.Name,
		NameWithOwner:    n.NameWithOwner,
		Owner:            n.Owner.Login,
		Description:      n.Description,
		URL:              n.URL,
		Visibility:       strings.ToLower(n.Visibility),
		IsFork:           n.IsFork,
		IsArchived:       n.IsArchived,
		PrimaryLanguage:  languageName(n.PrimaryLanguage),
		Stars:            n.StargazerCount,
		Forks:            n.ForkCount,
		OpenIssues:       n.Issues.TotalCount,
		OpenPullRequests: n.PullRequests.TotalCount,
		CreatedAt:        n.CreatedAt.UTC(),
		UpdatedAt:        n.UpdatedAt.UTC(),
	}
	if n.DefaultBranchRef != nil {
		repo.DefaultBranch = n.DefaultBranchRef.Name
	}
	if n.PushedAt != nil {
		t := n.PushedAt.UTC()
		repo.PushedAt = &t
	}
	return repo
}

func (n userNode) toDomain() *domain.SocialEdge {
	return &domain.SocialEdge{
		ID:        nodeID(n.ID),
		Login:     n.Login,
		Name:      n.Name,
		URL:       n.URL,
		AvatarURL: n.AvatarURL,
	}
}

func (e starredEdge) toDomain() *domain.StarredRepo {
	return &domain.StarredRepo{
		ID:              nodeID(e.Node.ID),
		NameWithOwner:   e.Node.NameWithOwner,
		Description:     e.Node.Description,
		URL:             e.Node.URL,
		Stars:           e.Node.StargazerCount,
		Forks:           e.Node.ForkCount,
		PrimaryLanguage: languageName(e.Node.PrimaryLanguage),
		StarredAt:       e.StarredAt.UTC(),
	}
}

func (n gistNode) toDomain() *domain.Gist {
	files := make([]string, 0, len(n.Files))
	for _, f := range n.Files {
		files = append(files, f.Name)
	}
	return &domain.Gist{
		ID:          nodeID(n.ID),
		Name:        n.Name,
		Description: n.Description,
		URL:         n.URL,
		Public:      n.IsPublic,
		Files:       files,
		CreatedAt:   n.CreatedAt.UTC(),
		UpdatedAt:   n.UpdatedAt.UTC(),
	}
}
