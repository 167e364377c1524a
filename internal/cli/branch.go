package cli

import (
	"github.com/spf13/cobra"

	"fondsync/internal/gitrepo"
	"fondsync/internal/pipeline"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Manage the import feature branch",
}

var branchSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Ensure the feature branch exists and is checked out",
	Long: `Ensure the feature branch exists and is the active checkout.

When the branch already exists on the remote (for example from a same-day
retry) it is reused; running setup twice never creates a second branch.`,
	Run: func(cmd *cobra.Command, args []string) {
		validateConfig()
		owner, repo := requireRepository()

		ctx, cancel := runContext()
		defer cancel()

		host := pipeline.NewGitHubHost(newGitHubClient(ctx), owner, repo)
		p := pipeline.New(cfg, host, gitrepo.Open(cfg.Import.RepoDir), nil, console)
		if _, err := p.SetupBranch(ctx); err != nil {
			fatal(err)
		}
	},
}

func init() {
	branchCmd.AddCommand(branchSetupCmd)
	rootCmd.AddCommand(branchCmd)
}
