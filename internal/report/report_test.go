package report

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/aggregator"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
)

func testSnapshot() *domain.Snapshot {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Snapshot{
		User: &domain.UserInfo{Login: "octocat", Name: "The Octocat"},
		Organizations: []*domain.Organization{
			{Login: "small-org", Role: "member", Repositories: 2},
			{Login: "big-org", Role: "admin", Repositories: 40, Members: 12},
		},
		Repositories: []*domain.Repository{
			{NameWithOwner: "octocat/old", Visibility: "public", PrimaryLanguage: "Go", Stars: 3, UpdatedAt: base},
			{NameWithOwner: "octocat/new", Visibility: "private", PrimaryLanguage: "Go", UpdatedAt: base.Add(48 * time.Hour)},
			{NameWithOwner: "octocat/fork", Visibility: "public", PrimaryLanguage: "Rust", IsFork: true, UpdatedAt: base.Add(24 * time.Hour)},
			{NameWithOwner: "octocat/docs", Visibility: "public", UpdatedAt: base.Add(-24 * time.Hour)},
		},
		Followers: []*domain.SocialEdge{{Login: "a"}, {Login: "b"}, {Login: "c"}},
	}
}

func render(t *testing.T, snap *domain.Snapshot, fullScan bool) string {
	t.Helper()
	summary := aggregator.Summarize("octocat", fullScan, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), snap)
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, snap, summary))
	return buf.String()
}

func TestGenerate(t *testing.T) {
	out := render(t, testSnapshot(), false)

	assert.Contains(t, out, "# GitHub Ecosystem: The Octocat (octocat)")
	assert.Contains(t, out, "Snapshot taken 2024-06-01T12:00:00Z\n")
	assert.NotContains(t, out, "full scan")

	assert.Regexp(t, `\|\s*Organizations\s*\|\s*2\s*\|`, out)
	assert.Regexp(t, `\|\s*Repositories\s*\|\s*4\s*\|`, out)
	assert.Regexp(t, `\|\s*Followers\s*\|\s*3\s*\|`, out)
	assert.Regexp(t, `\|\s*Gists\s*\|\s*0\s*\|`, out)

	assert.Regexp(t, `\|\s*Private\s*\|\s*1\s*\|`, out)
	assert.Regexp(t, `\|\s*Forks\s*\|\s*1\s*\|`, out)
	assert.Regexp(t, `\|\s*Go\s*\|\s*2\s*\|\s*66\.7%\s*\|`, out)
	assert.Regexp(t, `\|\s*Rust\s*\|\s*1\s*\|\s*33\.3%\s*\|`, out)
	assert.Contains(t, out, "- `gists.json` (0 records)")
}

func TestGenerate_Ordering(t *testing.T) {
	out := render(t, testSnapshot(), true)

	assert.Contains(t, out, "(full scan)")

	big := regexp.MustCompile(`big-org`).FindStringIndex(out)
	small := regexp.MustCompile(`small-org`).FindStringIndex(out)
	require.NotNil(t, big)
	require.NotNil(t, small)
	assert.Less(t, big[0], small[0], "organizations are ordered by repository count")

	newer := regexp.MustCompile(`octocat/new`).FindStringIndex(out)
	older := regexp.MustCompile(`octocat/old`).FindStringIndex(out)
	assert.Less(t, newer[0], older[0], "recent repositories are newest first")
}

func TestGenerate_Empty(t *testing.T) {
	out := render(t, &domain.Snapshot{}, false)

	assert.Contains(t, out, "# GitHub Ecosystem: octocat")
	assert.Contains(t, out, "No organizations.")
	assert.Contains(t, out, "No language data.")
	assert.Contains(t, out, "No repositories.")
	assert.Regexp(t, `\|\s*Total\s*\|\s*0\s*\|`, out)
}
