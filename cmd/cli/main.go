package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/collector"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/config"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/log"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/report"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/snapshot"
	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/storage/factory"
	"github.com/kurihiro0119/github-ecosystem-snapshot/pkg/client"
)

var (
	cfgFile      string
	outputJSON   bool
	dataDir      string
	fullScan     bool
	reportOut    string
	historyLimit int
	remote       bool
	runID        string
)

var rootCmd = &cobra.Command{
	Use:   "ecosystem",
	Short: "GitHub ecosystem snapshot tool",
	Long: `A CLI tool for capturing a point-in-time snapshot of a GitHub account's ecosystem.

It fetches organizations, repositories, followers, following, starred repositories
and gists, and writes each category to its own JSON file together with a summary.`,
	SilenceUsage: true,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [account]",
	Short: "Fetch a snapshot from GitHub",
	Long: `Fetch every category for an account and write it to the data directory.
The account defaults to ECOSYSTEM_USER, then to the authenticated user.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a Markdown report of the latest snapshot",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

var showCmd = &cobra.Command{
	Use:   "show [category]",
	Short: "Show the latest snapshot",
	Long:  `Display the summary of the latest snapshot, or the records of one category.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var historyCmd = &cobra.Command{
	Use:   "history [account]",
	Short: "Show recorded snapshot runs",
	Long: `Display snapshot runs recorded in the history store (requires STORAGE_TYPE sqlite or postgres).
With --remote the runs are read from the API server at API_ENDPOINT instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "snapshot directory (overrides DATA_DIR)")

	snapshotCmd.Flags().BoolVar(&fullScan, "full-scan", false, "fetch every repository and starred repository without caps")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "ECOSYSTEM.md", "output file, or - for stdout")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	historyCmd.Flags().BoolVar(&remote, "remote", false, "read runs from the API server at API_ENDPOINT")
	historyCmd.Flags().StringVar(&runID, "run", "", "show a single run by ID")

	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	coll, err := collector.NewGitHubCollector(collector.Options{
		Token:      cfg.GitHubToken,
		GraphQLURL: cfg.GraphQLURL,
		RESTURL:    cfg.RESTURL,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return err
	}

	opts := []snapshot.ServiceOption{snapshot.WithConcurrency(cfg.FetchConcurrency)}
	store, err := factory.Open(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, snapshot.WithHistory(store))
	}

	account := cfg.EcosystemUser
	if len(args) == 1 {
		account = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := snapshot.NewService(coll, opts...).Run(ctx, snapshot.Options{
		Account:   account,
		FullScan:  fullScan || cfg.FullScan,
		OutputDir: cfg.DataDir,
	})
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(map[string]interface{}{
			"run_id":  result.RunID,
			"dir":     result.OutputDir,
			"summary": result.Summary,
		})
	}

	fmt.Printf("\nSnapshot of %s written to %s\n", result.Account, result.OutputDir)
	fmt.Printf("Run ID: %s\n\n", result.RunID)
	printCounts(result.Summary)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap, summary, err := snapshot.NewReader(cfg.DataDir).Load()
	if err != nil {
		return fmt.Errorf("failed to load snapshot from %s: %w", cfg.DataDir, err)
	}

	var buf bytes.Buffer
	if err := report.Generate(&buf, snap, summary); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if reportOut == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(reportOut, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("Report written to %s\n", reportOut)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reader := snapshot.NewReader(cfg.DataDir)

	if len(args) == 0 {
		summary, err := reader.Summary()
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(summary)
		}
		fmt.Printf("\nSnapshot of %s at %s", summary.User, summary.Timestamp.Format(time.RFC3339))
		if summary.FullScan {
			fmt.Print(" (full scan)")
		}
		fmt.Print("\n\n")
		printCounts(summary)
		return nil
	}

	category, ok := domain.ParseCategory(args[0])
	if !ok {
		return fmt.Errorf("unknown category %q", args[0])
	}

	if outputJSON {
		data, err := reader.ReadCategory(category)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	snap, _, err := reader.Load()
	if err != nil {
		return err
	}
	printCategory(snap, category)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	account := ""
	if len(args) == 1 {
		account = args[0]
	}

	var runs []*domain.SnapshotRun
	if remote {
		runs, err = remoteRuns(cfg, account)
	} else {
		runs, err = localRuns(cfg, account)
	}
	if err != nil {
		return err
	}

	if outputJSON {
		if runID != "" && len(runs) == 1 {
			return printJSON(runs[0])
		}
		return printJSON(runs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Run", "Account", "Status", "Full Scan", "Started", "Repositories", "Error"})
	for _, run := range runs {
		table.Append([]string{
			run.ID,
			run.Account,
			string(run.Status),
			strconv.FormatBool(run.FullScan),
			run.StartedAt.Format(time.RFC3339),
			strconv.Itoa(run.Counts.Repositories),
			run.Error,
		})
	}
	table.Render()
	return nil
}

func remoteRuns(cfg *config.Config, account string) ([]*domain.SnapshotRun, error) {
	c := client.NewClient(cfg.APIEndpoint)
	if runID != "" {
		run, err := c.GetRun(runID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run from %s: %w", cfg.APIEndpoint, err)
		}
		return []*domain.SnapshotRun{run}, nil
	}

	runs, err := c.GetRuns(account, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs from %s: %w", cfg.APIEndpoint, err)
	}
	return runs, nil
}

func localRuns(cfg *config.Config, account string) ([]*domain.SnapshotRun, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := factory.Open(cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("run history is disabled, set STORAGE_TYPE to sqlite or postgres, or use --remote")
	}
	defer store.Close()

	ctx := context.Background()
	if runID != "" {
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run: %w", err)
		}
		return []*domain.SnapshotRun{run}, nil
	}

	runs, err := store.ListRuns(ctx, account, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func printCounts(summary *domain.Summary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Category", "Count", "File"})
	for _, c := range domain.Categories {
		table.Append([]string{string(c), strconv.Itoa(summary.Counts.Get(c)), c.FileName()})
	}
	table.Render()
}

func printCategory(snap *domain.Snapshot, category domain.Category) {
	table := tablewriter.NewWriter(os.Stdout)

	switch category {
	case domain.CategoryOrganizations:
		table.SetHeader([]string{"Organization", "Role", "Repositories", "Members"})
		for _, o := range snap.Organizations {
			table.Append([]string{o.Login, o.Role, strconv.Itoa(o.Repositories), strconv.Itoa(o.Members)})
		}
	case domain.CategoryRepositories:
		table.SetHeader([]string{"Repository", "Visibility", "Language", "Stars", "Updated"})
		for _, r := range snap.Repositories {
			table.Append([]string{r.NameWithOwner, r.Visibility, r.PrimaryLanguage, strconv.Itoa(r.Stars), r.UpdatedAt.Format("2006-01-02")})
		}
	case domain.CategoryFollowers, domain.CategoryFollowing:
		edges := snap.Followers
		if category == domain.CategoryFollowing {
			edges = snap.Following
		}
		table.SetHeader([]string{"Login", "Name", "URL"})
		for _, e := range edges {
			table.Append([]string{e.Login, e.Name, e.URL})
		}
	case domain.CategoryStarredRepos:
		table.SetHeader([]string{"Repository", "Language", "Stars", "Starred"})
		for _, s := range snap.StarredRepos {
			table.Append([]string{s.NameWithOwner, s.PrimaryLanguage, strconv.Itoa(s.Stars), s.StarredAt.Format("2006-01-02")})
		}
	case domain.CategoryGists:
		table.SetHeader([]string{"Gist", "Description", "Public", "Files"})
		for _, g := range snap.Gists {
			table.Append([]string{g.Name, g.Description, strconv.FormatBool(g.Public), strconv.Itoa(len(g.Files))})
		}
	}

	table.Render()
	fmt.Printf("%d %s\n", snap.Len(category), category)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
