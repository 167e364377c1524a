package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v81/github"
)

// BranchExists reports whether a branch exists in the remote repository.
// A 404 from the API means "no branch"; every other error is surfaced.
func (c *Client) BranchExists(ctx context.Context, owner, repo, branch string) (bool, error) {
	_, _, err := c.Client.Repositories.GetBranch(ctx, owner, repo, branch, 0)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get branch %s: %w", branch, err)
	}
	return true, nil
}

// PullRequestSpec describes the pull request the import pipeline proposes.
type PullRequestSpec struct {
	Head      string
	Base      string
	Title     string
	Body      string
	Reviewers []string
}

// EnsurePullRequest returns the open pull request for spec.Head, creating it
// (and requesting reviewers) when none exists. Pushes to an existing head
// branch update the PR on their own, so re-runs never create duplicates.
func (c *Client) EnsurePullRequest(ctx context.Context, owner, repo string, spec PullRequestSpec) (pr *github.PullRequest, created bool, err error) {
	open, _, err := c.Client.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
		State: "open",
		Head:  owner + ":" + spec.Head,
	})
	if err != nil {
		return nil, false, fmt.Errorf("list open pull requests for %s: %w", spec.Head, err)
	}
	if len(open) > 0 {
		return open[0], false, nil
	}

	pr, _, err = c.Client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.Ptr(spec.Title),
		Body:  github.Ptr(spec.Body),
		Head:  github.Ptr(spec.Head),
		Base:  github.Ptr(spec.Base),
	})
	if err != nil {
		return nil, false, fmt.Errorf("create pull request %s -> %s: %w", spec.Head, spec.Base, err)
	}

	if len(spec.Reviewers) > 0 {
		_, _, err = c.Client.PullRequests.RequestReviewers(ctx, owner, repo, pr.GetNumber(), github.ReviewersRequest{
			Reviewers: spec.Reviewers,
		})
		if err != nil {
			return nil, false, fmt.Errorf("request reviewers for PR #%d: %w", pr.GetNumber(), err)
		}
	}

	return pr, true, nil
}

func isNotFound(err error) bool {
	var er *github.ErrorResponse
	return errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound
}
