package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// pipeline. Keeping these as constants helps avoid drift between Cobra flag
// wiring and other code paths that need to reference flags (e.g. error
// messages that tell the user which flag to set).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.GitHub.Repository, flags.FlagRepository, "", "...")
//	arg := "--" + flags.FlagRepository
const (
	// Target repository
	FlagRepository    = "repository"
	FlagBaseBranch    = "base-branch"
	FlagFeatureBranch = "feature-branch"
	FlagAuthorName    = "author-name"
	FlagAuthorEmail   = "author-email"

	// Vendor source
	FlagVendorEnv   = "vendor-env"
	FlagVendorURL   = "vendor-url"
	FlagVendorToken = "vendor-token"

	// Import
	FlagEntity  = "entity"
	FlagDataDir = "data-dir"
	FlagRepoDir = "repo-dir"

	// Pull request
	FlagTeamConfig = "team-config"

	// Deployment status
	FlagEnvironment = "environment"
	FlagRef         = "ref"
	FlagOutcome     = "outcome"

	// Runtime
	FlagTimeout = "timeout"
)
