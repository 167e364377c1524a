// Package pipeline orchestrates the import-and-propose-change flow: ensure
// the feature branch is checked out, fetch vendor data, detect changes
// against the tracked snapshots, and only on change commit, push and ensure
// an open pull request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fondsync/internal/config"
	gh "fondsync/internal/github"
	"fondsync/internal/gitrepo"
	"fondsync/internal/output"
	"fondsync/internal/snapshot"
	"fondsync/internal/vendorapi"
)

// PullRequestSpec is the host-agnostic description of the proposed PR.
type PullRequestSpec struct {
	Head      string
	Base      string
	Title     string
	Body      string
	Reviewers []string
}

// Host is the source-control hosting API surface the pipeline consumes.
type Host interface {
	BranchExists(ctx context.Context, branch string) (bool, error)
	EnsurePullRequest(ctx context.Context, spec PullRequestSpec) (number int, created bool, err error)
}

type githubHost struct {
	client *gh.Client
	owner  string
	repo   string
}

// NewGitHubHost adapts the GitHub client to the Host interface for one
// target repository.
func NewGitHubHost(client *gh.Client, owner, repo string) Host {
	return &githubHost{client: client, owner: owner, repo: repo}
}

func (h *githubHost) BranchExists(ctx context.Context, branch string) (bool, error) {
	return h.client.BranchExists(ctx, h.owner, h.repo, branch)
}

func (h *githubHost) EnsurePullRequest(ctx context.Context, spec PullRequestSpec) (int, bool, error) {
	pr, created, err := h.client.EnsurePullRequest(ctx, h.owner, h.repo, gh.PullRequestSpec{
		Head:      spec.Head,
		Base:      spec.Base,
		Title:     spec.Title,
		Body:      spec.Body,
		Reviewers: spec.Reviewers,
	})
	if err != nil {
		return 0, false, err
	}
	return pr.GetNumber(), created, nil
}

// Pipeline runs the import flow against one target repository. All state
// lives for a single invocation; re-runs are made safe by branch reuse and
// diff-based short-circuiting, not by internal retries.
type Pipeline struct {
	cfg     *config.Config
	host    Host
	repo    *gitrepo.Repo
	source  vendorapi.Source
	console *output.Console
	now     func() time.Time
}

func New(cfg *config.Config, host Host, repo *gitrepo.Repo, source vendorapi.Source, console *output.Console) *Pipeline {
	if console == nil {
		console = output.NewConsole(nil)
	}
	return &Pipeline{
		cfg:     cfg,
		host:    host,
		repo:    repo,
		source:  source,
		console: console,
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// SetupBranch makes the feature branch the active checkout, creating it off
// the current HEAD when it does not exist on the remote yet. Reports whether
// the branch pre-existed so later stages pick fixup commits and plain pushes.
func (p *Pipeline) SetupBranch(ctx context.Context) (existed bool, err error) {
	branch := p.cfg.GitHub.FeatureBranch
	p.console.Stepf("setting up branch %s", branch)

	existed, err = p.host.BranchExists(ctx, branch)
	if err != nil {
		return false, stageErr(StageBranch, err)
	}
	if existed {
		p.console.Infof("feature branch exists, checking out")
	} else {
		p.console.Infof("feature branch does not exist, creating it")
	}
	if err := p.repo.Checkout(ctx, branch, !existed); err != nil {
		return existed, stageErr(StageBranch, err)
	}
	return existed, nil
}

// Import fetches the record sets for the given entity types, serializes them
// into snapshot files, and reports per-entity change outcomes. Fetches run
// concurrently (the entity types are independent); diffing and writing stay
// sequential since they share the working tree.
func (p *Pipeline) Import(ctx context.Context, entities []vendorapi.EntityType) ([]snapshot.Outcome, error) {
	p.console.Stepf("importing FONDSNET data (%s)", joinEntities(entities))

	sets := make([]vendorapi.RecordSet, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	for i, entity := range entities {
		g.Go(func() error {
			set, err := p.source.FetchRecords(gctx, entity)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stageErr(StageFetch, err)
	}

	dataDir := filepath.Join(p.cfg.Import.RepoDir, p.cfg.Import.DataDir)
	outcomes := make([]snapshot.Outcome, 0, len(sets))
	for _, set := range sets {
		p.console.Infof("fetched %d %s records", len(set.Records), set.Entity)

		outcome, err := snapshot.Plan(set, snapshot.Path(dataDir, set.Entity), p.now())
		if err != nil {
			return nil, stageErr(StageDiff, err)
		}
		if err := outcome.Write(); err != nil {
			return nil, stageErr(StageWrite, err)
		}

		if outcome.Changed {
			p.console.Successf("%s: snapshot changed", set.Entity)
		} else {
			p.console.Noopf("%s: no change", set.Entity)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// Publish commits and pushes the working tree and ensures an open pull
// request, but only when something actually changed. A clean tree is the
// terminal no-op outcome and exits successfully.
func (p *Pipeline) Publish(ctx context.Context, entities []vendorapi.EntityType) error {
	p.console.Stepf("checking for changes to publish")

	changed, err := p.repo.HasChanges(ctx)
	if err != nil {
		return stageErr(StagePush, err)
	}
	if !changed {
		p.console.Noopf("nothing changed, skipping this step")
		return nil
	}

	branchExisted, err := p.host.BranchExists(ctx, p.cfg.GitHub.FeatureBranch)
	if err != nil {
		return stageErr(StagePush, err)
	}

	if err := p.repo.ConfigureUser(ctx, p.cfg.GitHub.AuthorName, p.cfg.GitHub.AuthorEmail); err != nil {
		return stageErr(StagePush, err)
	}
	if err := p.repo.CommitAll(ctx, commitMessage(entities, branchExisted, p.now())); err != nil {
		return stageErr(StagePush, err)
	}
	if err := p.repo.Push(ctx, !branchExisted); err != nil {
		return stageErr(StagePush, err)
	}
	p.console.Successf("pushed %s", p.cfg.GitHub.FeatureBranch)

	reviewers, err := p.reviewers()
	if err != nil {
		return stageErr(StagePullRequest, err)
	}

	p.console.Infof("checking for pull requests")
	number, created, err := p.host.EnsurePullRequest(ctx, PullRequestSpec{
		Head:      p.cfg.GitHub.FeatureBranch,
		Base:      p.cfg.GitHub.BaseBranch,
		Title:     "Update FONDSNET data",
		Body:      pullRequestBody(entities),
		Reviewers: reviewers,
	})
	if err != nil {
		return stageErr(StagePullRequest, err)
	}
	if created {
		p.console.Successf("PR #%d created, reviewers %v", number, reviewers)
	} else {
		p.console.Infof("pull request already exists, #%d", number)
	}
	return nil
}

// Run executes the whole pipeline as one procedure. On failure after the
// branch switch, the original checkout is restored so a cancelled or failed
// run never leaves the tree on a half-done feature branch.
func (p *Pipeline) Run(ctx context.Context, entities []vendorapi.EntityType) (err error) {
	originalBranch, branchErr := p.repo.CurrentBranch(ctx)
	if branchErr != nil {
		return stageErr(StageBranch, branchErr)
	}
	defer func() {
		if err != nil && originalBranch != "" {
			// Best effort: diagnostics for the failure itself already exist.
			if restoreErr := p.repo.Checkout(context.WithoutCancel(ctx), originalBranch, false); restoreErr != nil {
				p.console.Failf("could not restore branch %s: %v", originalBranch, restoreErr)
			}
		}
	}()

	if _, err = p.SetupBranch(ctx); err != nil {
		return err
	}
	if _, err = p.Import(ctx, entities); err != nil {
		return err
	}
	return p.Publish(ctx, entities)
}

// reviewers loads the data team file. An absent file just means no review
// requests; a malformed one is fatal.
func (p *Pipeline) reviewers() ([]string, error) {
	path := filepath.Join(p.cfg.Import.RepoDir, p.cfg.Review.TeamConfig)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		p.console.Infof("no team config at %s, skipping review requests", p.cfg.Review.TeamConfig)
		return nil, nil
	}
	team, err := config.LoadTeam(path)
	if err != nil {
		return nil, err
	}
	return team.Members, nil
}

// commitMessage keeps the subject stable per entity selection so retries on
// an existing branch can use fixup! commits; the import timestamp goes into
// the body.
func commitMessage(entities []vendorapi.EntityType, fixup bool, now time.Time) string {
	subject := fmt.Sprintf("feat(fixtures): update FONDSNET %s", entityPhrase(entities))
	if fixup {
		subject = "fixup! " + subject
	}
	return subject + "\n\nImported at " + now.UTC().Format(time.RFC3339) + "."
}

func pullRequestBody(entities []vendorapi.EntityType) string {
	return fmt.Sprintf(
		"This PR was created automatically. Check the updated FONDSNET %s.",
		entityPhrase(entities),
	)
}

func entityPhrase(entities []vendorapi.EntityType) string {
	if len(entities) == len(vendorapi.AllEntityTypes()) {
		return "data"
	}
	return joinEntities(entities) + " data"
}

func joinEntities(entities []vendorapi.EntityType) string {
	if len(entities) == len(vendorapi.AllEntityTypes()) {
		return "all"
	}
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}
