package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/aggregator"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
)

// Section sizes
const (
	TopOrganizations   = 10
	TopLanguages       = 10
	RecentRepositories = 10
)

var categoryTitles = map[domain.Category]string{
	domain.CategoryOrganizations: "Organizations",
	domain.CategoryRepositories:  "Repositories",
	domain.CategoryFollowers:     "Followers",
	domain.CategoryFollowing:     "Following",
	domain.CategoryStarredRepos:  "Starred Repositories",
	domain.CategoryGists:         "Gists",
}

// Generate renders a Markdown dashboard of a snapshot
func Generate(w io.Writer, snap *domain.Snapshot, summary *domain.Summary) error {
	bw := bufio.NewWriter(w)

	title := summary.User
	if snap.User != nil && snap.User.Name != "" {
		title = fmt.Sprintf("%s (%s)", snap.User.Name, summary.User)
	}
	fmt.Fprintf(bw, "# GitHub Ecosystem: %s\n\n", title)
	fmt.Fprintf(bw, "Snapshot taken %s", summary.Timestamp.UTC().Format(time.RFC3339))
	if summary.FullScan {
		fmt.Fprint(bw, " (full scan)")
	}
	fmt.Fprint(bw, "\n\n")

	writeOverview(bw, summary)
	writeOrganizations(bw, snap.Organizations)
	writeRepositoryStats(bw, snap.Repositories)
	writeLanguages(bw, snap.Repositories)
	writeRecent(bw, snap.Repositories)
	writeDataFiles(bw, summary)

	return bw.Flush()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	return table
}

func section(w io.Writer, heading string) {
	fmt.Fprintf(w, "## %s\n\n", heading)
}

func writeOverview(w io.Writer, summary *domain.Summary) {
	section(w, "Overview")
	table := newTable(w, []string{"Category", "Count"})
	for _, c := range domain.Categories {
		table.Append([]string{categoryTitles[c], strconv.Itoa(summary.Counts.Get(c))})
	}
	table.Render()
	fmt.Fprintln(w)
}

func writeOrganizations(w io.Writer, orgs []*domain.Organization) {
	section(w, "Organizations")
	if len(orgs) == 0 {
		fmt.Fprint(w, "No organizations.\n\n")
		return
	}
	table := newTable(w, []string{"Organization", "Role", "Repositories", "Members"})
	for _, org := range aggregator.TopOrganizations(orgs, TopOrganizations) {
		table.Append([]string{
			org.Login,
			org.Role,
			strconv.Itoa(org.Repositories),
			strconv.Itoa(org.Members),
		})
	}
	table.Render()
	fmt.Fprintln(w)
}

func writeRepositoryStats(w io.Writer, repos []*domain.Repository) {
	section(w, "Repository Statistics")
	stats := aggregator.AnalyzeRepositories(repos)
	table := newTable(w, []string{"Metric", "Value"})
	table.Append([]string{"Total", strconv.Itoa(stats.Total)})
	table.Append([]string{"Public", strconv.Itoa(stats.Public)})
	table.Append([]string{"Private", strconv.Itoa(stats.Private)})
	table.Append([]string{"Original", strconv.Itoa(stats.Original)})
	table.Append([]string{"Forks", strconv.Itoa(stats.Forks)})
	table.Append([]string{"Archived", strconv.Itoa(stats.Archived)})
	table.Append([]string{"Stars", strconv.Itoa(stats.Stars)})
	table.Render()
	fmt.Fprintln(w)
}

func writeLanguages(w io.Writer, repos []*domain.Repository) {
	section(w, "Top Languages")
	shares := aggregator.RankLanguages(aggregator.AnalyzeRepositories(repos), TopLanguages)
	if len(shares) == 0 {
		fmt.Fprint(w, "No language data.\n\n")
		return
	}
	table := newTable(w, []string{"Language", "Repositories", "Share"})
	for _, s := range shares {
		table.Append([]string{s.Language, strconv.Itoa(s.Count), fmt.Sprintf("%.1f%%", s.Percentage)})
	}
	table.Render()
	fmt.Fprintln(w)
}

func writeRecent(w io.Writer, repos []*domain.Repository) {
	section(w, "Recently Updated Repositories")
	if len(repos) == 0 {
		fmt.Fprint(w, "No repositories.\n\n")
		return
	}
	table := newTable(w, []string{"Repository", "Visibility", "Language", "Stars", "Updated"})
	for _, r := range aggregator.RecentRepositories(repos, RecentRepositories) {
		lang := r.PrimaryLanguage
		if lang == "" {
			lang = "-"
		}
		table.Append([]string{
			r.NameWithOwner,
			r.Visibility,
			lang,
			strconv.Itoa(r.Stars),
			r.UpdatedAt.UTC().Format("2006-01-02"),
		})
	}
	table.Render()
	fmt.Fprintln(w)
}

func writeDataFiles(w io.Writer, summary *domain.Summary) {
	section(w, "Data Files")
	fmt.Fprintf(w, "- `%s`\n", domain.SummaryFile)
	fmt.Fprintf(w, "- `%s`\n", domain.UserInfoFile)
	for _, c := range domain.Categories {
		fmt.Fprintf(w, "- `%s` (%d records)\n", c.FileName(), summary.Counts.Get(c))
	}
}
