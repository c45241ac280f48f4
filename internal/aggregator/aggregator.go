package aggregator

import (
	"sort"
	"time"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
)

// Summarize computes the summary record for a snapshot
func Summarize(user string, fullScan bool, at time.Time, snap *domain.Snapshot) *domain.Summary {
	return &domain.Summary{
		Timestamp: at.UTC(),
		User:      user,
		FullScan:  fullScan,
		Counts: domain.Counts{
			Organizations: snap.Len(domain.CategoryOrganizations),
			Repositories:  snap.Len(domain.CategoryRepositories),
			Followers:     snap.Len(domain.CategoryFollowers),
			Following:     snap.Len(domain.CategoryFollowing),
			StarredRepos:  snap.Len(domain.CategoryStarredRepos),
			Gists:         snap.Len(domain.CategoryGists),
		},
	}
}

// RepositoryStats holds breakdowns of a repository listing
type RepositoryStats struct {
	Total     int
	Public    int
	Private   int
	Forks     int
	Original  int
	Archived  int
	Stars     int
	Languages map[string]int
	Owners    map[string]int
}

// AnalyzeRepositories computes visibility, fork, language and owner breakdowns
func AnalyzeRepositories(repos []*domain.Repository) RepositoryStats {
	stats := RepositoryStats{
		Languages: make(map[string]int),
		Owners:    make(map[string]int),
	}

	for _, repo := range repos {
		stats.Total++
		if repo.IsPrivate() {
			stats.Private++
		} else {
			stats.Public++
		}

		if repo.IsFork {
			stats.Forks++
		} else {
			stats.Original++
		}

		if repo.IsArchived {
			stats.Archived++
		}

		stats.Stars += repo.Stars

		if repo.PrimaryLanguage != "" {
			stats.Languages[repo.PrimaryLanguage]++
		}
		stats.Owners[repo.Owner]++
	}

	return stats
}

// LanguageShare is one language's portion of the repositories that declare a language
type LanguageShare struct {
	Language   string
	Count      int
	Percentage float64
}

// RankLanguages orders languages by repository count, then name. A limit of 0 returns all.
func RankLanguages(stats RepositoryStats, limit int) []LanguageShare {
	total := 0
	for _, n := range stats.Languages {
		total += n
	}

	shares := make([]LanguageShare, 0, len(stats.Languages))
	for lang, n := range stats.Languages {
		shares = append(shares, LanguageShare{
			Language:   lang,
			Count:      n,
			Percentage: float64(n) / float64(total) * 100,
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Language < shares[j].Language
	})

	return truncate(shares, limit)
}

// TopOrganizations orders organizations by repository count, then login
func TopOrganizations(orgs []*domain.Organization, limit int) []*domain.Organization {
	sorted := append([]*domain.Organization(nil), orgs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Repositories != sorted[j].Repositories {
			return sorted[i].Repositories > sorted[j].Repositories
		}
		return sorted[i].Login < sorted[j].Login
	})
	return truncate(sorted, limit)
}

// RecentRepositories orders repositories by last update, newest first
func RecentRepositories(repos []*domain.Repository, limit int) []*domain.Repository {
	sorted := append([]*domain.Repository(nil), repos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	return truncate(sorted, limit)
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
