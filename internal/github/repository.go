package github

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/go-github/v81/github"
)

const listPageSize = 100

// GetBranch fetches a branch of the bound repository by name.
//
// The request goes through Client.Do rather than Repositories.GetBranch so a
// non-200 status surfaces as *github.ErrorResponse with the API message.
func (c *Client) GetBranch(ctx context.Context, name string) (*Branch, error) {
	u := fmt.Sprintf("repos/%s/%s/branches/%s", url.PathEscape(c.owner), url.PathEscape(c.repo), url.PathEscape(name))
	req, err := c.Client.NewRequest("GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("get branch %q: %w", name, err)
	}
	b := new(github.Branch)
	if _, err := c.Client.Do(ctx, req, b); err != nil {
		return nil, fmt.Errorf("get branch %q: %w", name, err)
	}
	return &Branch{
		Name:      b.GetName(),
		Protected: b.GetProtected(),
	}, nil
}

// ProtectBranch writes classic branch protection for name.
//
// Status checks and push restrictions are sent as null, so only the review and
// safety toggles of the policy are configured.
func (c *Client) ProtectBranch(ctx context.Context, name string, policy ProtectionPolicy) error {
	req := &github.ProtectionRequest{
		EnforceAdmins: policy.EnforceAdmins,
		RequiredPullRequestReviews: &github.PullRequestReviewsEnforcementRequest{
			DismissStaleReviews:          policy.DismissStaleReviews,
			RequireCodeOwnerReviews:      policy.RequireCodeOwnerReviews,
			RequiredApprovingReviewCount: policy.RequiredApprovingReviewCount,
		},
		AllowForcePushes: github.Ptr(policy.AllowForcePushes),
		AllowDeletions:   github.Ptr(policy.AllowDeletions),
	}
	if _, _, err := c.Client.Repositories.UpdateBranchProtection(ctx, c.owner, c.repo, name, req); err != nil {
		return fmt.Errorf("update branch protection for %q: %w", name, err)
	}
	return nil
}

// ListDeployKeys returns every deploy key of the bound repository.
func (c *Client) ListDeployKeys(ctx context.Context) ([]DeployKey, error) {
	opts := &github.ListOptions{PerPage: listPageSize}
	var out []DeployKey
	for {
		keys, resp, err := c.Client.Repositories.ListKeys(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list deploy keys: %w", err)
		}
		for _, k := range keys {
			out = append(out, DeployKey{
				ID:       k.GetID(),
				Title:    k.GetTitle(),
				ReadOnly: k.GetReadOnly(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListCollaborators returns every collaborator of the bound repository with
// its permission set as listed, i.e. before any change made during the run.
func (c *Client) ListCollaborators(ctx context.Context) ([]Collaborator, error) {
	opts := &github.ListCollaboratorsOptions{ListOptions: github.ListOptions{PerPage: listPageSize}}
	var out []Collaborator
	for {
		users, resp, err := c.Client.Repositories.ListCollaborators(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list collaborators: %w", err)
		}
		for _, u := range users {
			out = append(out, Collaborator{
				Login:       u.GetLogin(),
				Permissions: u.Permissions,
				RoleName:    u.GetRoleName(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}
