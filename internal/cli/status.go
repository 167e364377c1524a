package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fondsync/internal/flags"
	"fondsync/internal/status"
)

var statusOutcomes []string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report deployment status to GitHub",
	Long: `Report deployment status for an environment.

A deployment run brackets its steps with "status start" and "status finish".
finish folds all step outcomes into one verdict: success iff every outcome is
"success" (an empty list counts as success); cancelled, skipped and unknown
outcomes count as failure.`,
}

var statusStartCmd = &cobra.Command{
	Use:   "start",
	Short: `Set the deployment status to "in_progress"`,
	Run: func(cmd *cobra.Command, args []string) {
		validateConfig()
		requireEnvironment()
		owner, repo := requireRepository()

		ctx, cancel := runContext()
		defer cancel()

		client := newGitHubClient(ctx)
		if err := client.SetDeploymentStatus(ctx, owner, repo, cfg.Status.Environment, cfg.Status.Ref, "in_progress"); err != nil {
			fatal(err)
		}
		console.Successf("deployment of %s marked in progress", cfg.Status.Environment)
	},
}

var statusFinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Aggregate step outcomes and set the final deployment status",
	Run: func(cmd *cobra.Command, args []string) {
		validateConfig()
		requireEnvironment()
		owner, repo := requireRepository()

		verdict := status.AggregateRaw(statusOutcomes)

		ctx, cancel := runContext()
		defer cancel()

		client := newGitHubClient(ctx)
		if err := client.SetDeploymentStatus(ctx, owner, repo, cfg.Status.Environment, cfg.Status.Ref, string(verdict)); err != nil {
			fatal(err)
		}
		console.Successf("deployment of %s finished: %s", cfg.Status.Environment, verdict)
	},
}

var statusAggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Fold step outcomes into a single verdict without reporting it",
	Long: `Fold step outcomes into a single verdict and print it, for use in CI
expressions. The exit code is 0 regardless of the verdict; only operational
failures exit non-zero.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), status.AggregateRaw(statusOutcomes))
	},
}

func requireEnvironment() {
	if cfg.Status.Environment == "" {
		usageErr(fmt.Errorf("--%s is required", flags.FlagEnvironment))
	}
}

func init() {
	statusCmd.PersistentFlags().StringVar(&cfg.Status.Environment, flags.FlagEnvironment, "", "Deployment environment to report on")
	statusCmd.PersistentFlags().StringVar(&cfg.Status.Ref, flags.FlagRef, cfg.Status.Ref, "Git ref to create a deployment for when none exists (default: $GITHUB_SHA)")
	statusCmd.PersistentFlags().StringSliceVar(&statusOutcomes, flags.FlagOutcome, nil, "Step outcome (repeatable; comma-separated accepted)")

	statusCmd.AddCommand(statusStartCmd)
	statusCmd.AddCommand(statusFinishCmd)
	statusCmd.AddCommand(statusAggregateCmd)
	rootCmd.AddCommand(statusCmd)
}
