package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v81/github"
)

// SetDeploymentStatus records a deployment state ("in_progress", "success",
// "failure") for an environment. It reuses the most recent deployment for
// that environment and creates one for ref when none exists yet.
func (c *Client) SetDeploymentStatus(ctx context.Context, owner, repo, environment, ref, state string) error {
	id, err := c.latestDeploymentID(ctx, owner, repo, environment)
	if err != nil {
		return err
	}
	if id == 0 {
		id, err = c.createDeployment(ctx, owner, repo, environment, ref)
		if err != nil {
			return err
		}
	}

	_, _, err = c.Client.Repositories.CreateDeploymentStatus(ctx, owner, repo, id, &github.DeploymentStatusRequest{
		State:       github.Ptr(state),
		Environment: github.Ptr(environment),
	})
	if err != nil {
		return fmt.Errorf("set deployment status %s for %s: %w", state, environment, err)
	}
	return nil
}

func (c *Client) latestDeploymentID(ctx context.Context, owner, repo, environment string) (int64, error) {
	deployments, _, err := c.Client.Repositories.ListDeployments(ctx, owner, repo, &github.DeploymentsListOptions{
		Environment: environment,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("list deployments for %s: %w", environment, err)
	}
	if len(deployments) == 0 {
		return 0, nil
	}
	return deployments[0].GetID(), nil
}

func (c *Client) createDeployment(ctx context.Context, owner, repo, environment, ref string) (int64, error) {
	if ref == "" {
		return 0, fmt.Errorf("no deployment exists for %s and no ref given to create one", environment)
	}
	deployment, _, err := c.Client.Repositories.CreateDeployment(ctx, owner, repo, &github.DeploymentRequest{
		Ref:         github.Ptr(ref),
		Environment: github.Ptr(environment),
		AutoMerge:   github.Ptr(false),
		// Status checks are aggregated by the invoking workflow itself, not by
		// the deployments API.
		RequiredContexts: &[]string{},
	})
	if err != nil {
		return 0, fmt.Errorf("create deployment for %s@%s: %w", environment, ref, err)
	}
	return deployment.GetID(), nil
}
