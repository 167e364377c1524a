package cli

import (
	"github.com/spf13/cobra"

	"fondsync/internal/flags"
	"fondsync/internal/gitrepo"
	"fondsync/internal/pipeline"
	"fondsync/internal/vendorapi"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole import pipeline in one invocation",
	Long: `Run the import pipeline end to end: branch setup, data fetch, diff
detection, and, only when something changed, commit, push, and pull
request creation.

Stages execute strictly in order and every failure is fatal; when a stage
fails after the branch switch, the original checkout is restored. Re-running
after a failure is safe: the feature branch is reused and unchanged data
short-circuits before any commit.`,
	Run: func(cmd *cobra.Command, args []string) {
		validateConfig()
		entities, err := selectedEntities(entitySelector)
		if err != nil {
			usageErr(err)
		}
		owner, repo := requireRepository()

		ctx, cancel := runContext()
		defer cancel()

		host := pipeline.NewGitHubHost(newGitHubClient(ctx), owner, repo)
		source := vendorapi.NewClient(cfg.VendorBaseURL(), cfg.Vendor.Token)
		p := pipeline.New(cfg, host, gitrepo.Open(cfg.Import.RepoDir), source, console)
		if err := p.Run(ctx, entities); err != nil {
			fatal(err)
		}
	},
}

func init() {
	addImportFlags(runCmd)
	runCmd.Flags().StringVar(&cfg.Review.TeamConfig, flags.FlagTeamConfig, cfg.Review.TeamConfig, "Path (relative to --repo-dir) of the reviewer team YAML file")
	rootCmd.AddCommand(runCmd)
}
