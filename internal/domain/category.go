package domain

// Category identifies one of the six data sets captured in a snapshot
type Category string

const (
	CategoryOrganizations Category = "organizations"
	CategoryRepositories  Category = "repositories"
	CategoryFollowers     Category = "followers"
	CategoryFollowing     Category = "following"
	CategoryStarredRepos  Category = "starred_repos"
	CategoryGists         Category = "gists"
)

// Fixed file names inside the output directory
const (
	SummaryFile  = "summary.json"
	UserInfoFile = "user_info.json"
)

// Categories lists every category in the order they are reported
var Categories = []Category{
	CategoryOrganizations,
	CategoryRepositories,
	CategoryFollowers,
	CategoryFollowing,
	CategoryStarredRepos,
	CategoryGists,
}

// FileName returns the JSON file the category is written to
func (c Category) FileName() string {
	return string(c) + ".json"
}

// ParseCategory converts a string to a known Category
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
