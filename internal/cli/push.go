package cli

import (
	"github.com/spf13/cobra"

	"fondsync/internal/flags"
	"fondsync/internal/gitrepo"
	"fondsync/internal/pipeline"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Commit and push snapshot changes and ensure a pull request",
	Long: `Check the working tree for snapshot changes and, only if something
changed, commit, push the feature branch, and ensure an open pull request
into the base branch.

A clean tree is the terminal no-op outcome: the command logs it and exits 0.
When the feature branch already existed the commit is a fixup! and the push
updates the existing pull request instead of opening a second one. Reviewers
are requested from the team file (--team-config) when it exists.`,
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
		p := pipeline.New(cfg, host, gitrepo.Open(cfg.Import.RepoDir), nil, console)
		if err := p.Publish(ctx, entities); err != nil {
			fatal(err)
		}
	},
}

func init() {
	pushCmd.Flags().StringVar(&entitySelector, flags.FlagEntity, "all", "Entity type(s) covered by the commit message: companies|contacts|dealers|all")
	pushCmd.Flags().StringVar(&cfg.Review.TeamConfig, flags.FlagTeamConfig, cfg.Review.TeamConfig, "Path (relative to --repo-dir) of the reviewer team YAML file")
	rootCmd.AddCommand(pushCmd)
}
