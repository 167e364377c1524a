package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep the CLI
	// flag wiring in internal/cli in sync.
	GitHub  GitHub
	Vendor  Vendor
	Import  Import
	Review  Review
	Status  Status
	Runtime Runtime
}

type GitHub struct {
	// Repository is the target repository as OWNER/REPO (see --repository).
	// Defaults to the GITHUB_REPOSITORY environment variable.
	Repository string

	// BaseBranch is the branch pull requests target (see --base-branch).
	BaseBranch string

	// FeatureBranch is the working branch for import commits (see
	// --feature-branch). The name is deterministic so same-day retries reuse
	// the branch instead of creating a new one.
	FeatureBranch string

	// AuthorName and AuthorEmail identify the bot committer.
	AuthorName  string
	AuthorEmail string
}

type Vendor struct {
	// Environment selects the vendor endpoint set (see --vendor-env).
	// Allowed values: live, test.
	Environment string

	// BaseURL overrides the endpoint derived from Environment (see
	// --vendor-url). Mostly useful for local testing.
	BaseURL string

	// Token authenticates against the vendor API. Defaults to the
	// FONDSNET_TOKEN environment variable.
	Token string
}

type Import struct {
	// RepoDir is the local checkout of the target repository (see --repo-dir).
	RepoDir string

	// DataDir is the snapshot directory relative to RepoDir (see --data-dir).
	// One YAML file per entity type lives here; it is the diff baseline for
	// the next run.
	DataDir string
}

type Review struct {
	// TeamConfig is the path (relative to RepoDir) of the YAML file naming
	// the team whose members are requested as PR reviewers (see --team-config).
	TeamConfig string
}

type Status struct {
	// Environment is the deployment environment to report on (see --environment).
	Environment string

	// Ref is the git ref a deployment is created for when none exists yet
	// (see --ref). Defaults to the GITHUB_SHA environment variable.
	Ref string
}

type Runtime struct {
	// Timeout bounds one whole invocation (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose enables per-request API logging on stderr.
	Verbose bool
}

const (
	vendorLiveURL = "https://api.fondsnet.de"
	vendorTestURL = "https://api-test.fondsnet.de"
)

func New() *Config {
	return &Config{
		GitHub: GitHub{
			Repository:    os.Getenv("GITHUB_REPOSITORY"),
			BaseBranch:    "master",
			FeatureBranch: "feature/automatic-fondsnet-data-import",
			AuthorName:    "fondsync-bot",
			AuthorEmail:   "fondsync-bot@users.noreply.github.com",
		},
		Vendor: Vendor{
			Environment: "test",
			Token:       os.Getenv("FONDSNET_TOKEN"),
		},
		Import: Import{
			RepoDir: ".",
			DataDir: "data/fixtures",
		},
		Review: Review{
			TeamConfig: ".github/configs/fondsnet-data-team.yml",
		},
		Status: Status{
			Ref: os.Getenv("GITHUB_SHA"),
		},
		Runtime: Runtime{
			Timeout: 15 * time.Minute,
		},
	}
}

// Validate normalizes and checks fields shared by all commands. Command
// specific requirements (e.g. --environment for status commands) are checked
// by the command itself.
func (c *Config) Validate() error {
	c.GitHub.Repository = strings.TrimSpace(c.GitHub.Repository)
	if c.GitHub.Repository != "" {
		if _, _, err := SplitRepository(c.GitHub.Repository); err != nil {
			return err
		}
	}

	if strings.TrimSpace(c.GitHub.BaseBranch) == "" {
		return errors.New("--base-branch must not be empty")
	}
	if strings.TrimSpace(c.GitHub.FeatureBranch) == "" {
		return errors.New("--feature-branch must not be empty")
	}
	if c.GitHub.FeatureBranch == c.GitHub.BaseBranch {
		return fmt.Errorf("--feature-branch must differ from --base-branch (%s)", c.GitHub.BaseBranch)
	}

	c.Vendor.Environment = strings.ToLower(strings.TrimSpace(c.Vendor.Environment))
	switch c.Vendor.Environment {
	case "live", "test":
	case "":
		c.Vendor.Environment = "test"
	default:
		return fmt.Errorf("unsupported --vendor-env: %s (must be one of: live, test)", c.Vendor.Environment)
	}

	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	return nil
}

// VendorBaseURL returns the explicit override when set, otherwise the
// endpoint for the selected vendor environment.
func (c *Config) VendorBaseURL() string {
	if c.Vendor.BaseURL != "" {
		return c.Vendor.BaseURL
	}
	if c.Vendor.Environment == "live" {
		return vendorLiveURL
	}
	return vendorTestURL
}

// SplitRepository splits an OWNER/REPO selector into its parts.
func SplitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(repository), "/")
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected OWNER/REPO", repository)
	}
	return owner, repo, nil
}
