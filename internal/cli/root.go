package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fondsync/internal/config"
	"fondsync/internal/flags"
	gh "fondsync/internal/github"
	"fondsync/internal/output"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var console = output.NewConsole(nil)

var rootCmd = &cobra.Command{
	Use:   "fondsync",
	Short: "Import FONDSNET data into a repository and report deployment status",
	Long: `fondsync is the automation harness behind the scheduled FONDSNET data
import and the deployment status reporting workflows.

The import flow keeps a feature branch with the latest vendor data snapshots
and proposes changes via pull request:

	# full pipeline: branch setup, fetch, diff, commit/push/PR
	fondsync run --entity all

	# or stage by stage, the way the scheduler invokes it
	fondsync branch setup
	fondsync import --entity contacts
	fondsync push

The status flow wraps a deployment run:

	fondsync status start --environment production
	# ... deployment steps run here ...
	fondsync status finish --environment production --outcome success --outcome success

Credentials come from the environment (GITHUB_TOKEN, FONDSNET_TOKEN); a .env
file in the working directory is loaded when present. All failures are fatal
to the current run: the scheduler re-runs the pipeline, and branch reuse plus
diff-based short-circuiting make re-runs safe.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Local convenience only; scheduled runs inject real env vars.
		_ = godotenv.Load()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints every GitHub API call)")
	pf.DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout for one invocation")
	pf.StringVar(&cfg.GitHub.Repository, flags.FlagRepository, cfg.GitHub.Repository, "Target repository as OWNER/REPO (default: $GITHUB_REPOSITORY)")
	pf.StringVar(&cfg.GitHub.BaseBranch, flags.FlagBaseBranch, cfg.GitHub.BaseBranch, "Branch pull requests target")
	pf.StringVar(&cfg.GitHub.FeatureBranch, flags.FlagFeatureBranch, cfg.GitHub.FeatureBranch, "Working branch for import commits")
	pf.StringVar(&cfg.GitHub.AuthorName, flags.FlagAuthorName, cfg.GitHub.AuthorName, "Committer name for automated commits")
	pf.StringVar(&cfg.GitHub.AuthorEmail, flags.FlagAuthorEmail, cfg.GitHub.AuthorEmail, "Committer email for automated commits")
	pf.StringVar(&cfg.Import.RepoDir, flags.FlagRepoDir, cfg.Import.RepoDir, "Local checkout of the target repository")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// fatal reports a fatal run failure and exits non-zero, per the exit
// contract (0 = success including no-op, 1 = fatal, 2 = usage/config).
func fatal(err error) {
	console.Failf("%v", err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func usageErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(2)
}

func validateConfig() {
	if err := cfg.Validate(); err != nil {
		usageErr(err)
	}
}

// requireRepository splits the configured OWNER/REPO target, failing with a
// usage error when it is missing.
func requireRepository() (owner, repo string) {
	if strings.TrimSpace(cfg.GitHub.Repository) == "" {
		usageErr(fmt.Errorf("a target repository is required (set --%s or $GITHUB_REPOSITORY)", flags.FlagRepository))
	}
	owner, repo, err := config.SplitRepository(cfg.GitHub.Repository)
	if err != nil {
		usageErr(err)
	}
	return owner, repo
}

func newGitHubClient(ctx context.Context) *gh.Client {
	token, _, err := gh.ResolveAuthToken(ctx, "")
	if err != nil {
		fatal(fmt.Errorf("resolve GitHub auth token: %w", err))
	}
	if strings.TrimSpace(token) == "" {
		fatal(fmt.Errorf("GitHub auth token is required (set GITHUB_TOKEN or run 'gh auth login')"))
	}

	client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, nil))
	if err != nil {
		fatal(fmt.Errorf("create GitHub client: %w", err))
	}
	return client
}

func runContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Runtime.Timeout)
}
