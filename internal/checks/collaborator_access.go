package checks

import (
	"context"
	"fmt"

	gh "repoguard/internal/github"
	"repoguard/internal/output"
)

// DefaultTargetPermission is the level granted to the target login.
const DefaultTargetPermission = "admin"

type CollaboratorAccess struct {
	provider   Provider
	login      string
	permission string
	dryRun     bool
	verbose    bool
}

func NewCollaboratorAccess(p Provider, opts Options) *CollaboratorAccess {
	permission := opts.TargetPermission
	if permission == "" {
		permission = DefaultTargetPermission
	}
	return &CollaboratorAccess{
		provider:   p,
		login:      opts.TargetLogin,
		permission: permission,
		dryRun:     opts.DryRun,
		verbose:    opts.Verbose,
	}
}

func (c *CollaboratorAccess) ID() string {
	return "collaborator-access"
}

func (c *CollaboratorAccess) Title() string {
	return "Collaborator Access Levels"
}

func (c *CollaboratorAccess) Description() string {
	return "Lists repository collaborators with their permission sets. When the configured target login is a " +
		"collaborator, its permission is set to the target level (admin by default). No other collaborator " +
		"is ever changed.\n\n" +
		"Failures are confined to this check: the run always continues."
}

// ErrorDisposition is always continue: any failure in this check is reported
// and swallowed.
func (c *CollaboratorAccess) ErrorDisposition() Disposition {
	return DispositionContinue
}

func (c *CollaboratorAccess) Run(ctx context.Context, rep Reporter) Result {
	report(rep, c.ID(), output.LevelInfo, "", "Checking access control settings for collaborators...")

	collaborators, err := c.provider.ListCollaborators(ctx)
	if err != nil {
		return c.swallow(rep, err)
	}

	var (
		applied, rejected, pending int
		found                      bool
	)
	for _, collab := range collaborators {
		if c.login != "" && collab.Login == c.login {
			found = true
			if c.dryRun {
				report(rep, c.ID(), output.LevelWarn, collab.Login,
					fmt.Sprintf("Would set collaborator %s permission to %s (dry run).", collab.Login, c.permission))
				pending++
			} else {
				update, err := c.provider.SetCollaboratorPermission(ctx, collab.Login, c.permission)
				if err != nil {
					return c.swallow(rep, err)
				}
				if update.Applied() {
					report(rep, c.ID(), output.LevelFixed, collab.Login, "Collaborator permission updated successfully.")
					applied++
				} else {
					report(rep, c.ID(), output.LevelError, collab.Login,
						fmt.Sprintf("Failed to update collaborator permission. Status code: %d", update.StatusCode))
					report(rep, c.ID(), output.LevelError, collab.Login, fmt.Sprintf("Response: %s", update.Body))
					rejected++
				}
			}
		}
		// Permissions are the ones listed above, i.e. before any update.
		report(rep, c.ID(), output.LevelInfo, collab.Login,
			fmt.Sprintf("Collaborator: %s, Access Level: %s", collab.Login, gh.FormatPermissions(collab.Permissions)))
	}

	switch {
	case rejected > 0:
		return FailResult(c.ID(), fmt.Sprintf("Provider rejected %s permission for %s", c.permission, c.login))
	case pending > 0:
		return FailResult(c.ID(), fmt.Sprintf("%s would be granted %s", c.login, c.permission))
	case applied > 0:
		return FixedResult(c.ID(), fmt.Sprintf("Granted %s permission to %s", c.permission, c.login), applied)
	case c.login != "" && !found:
		return PassResult(c.ID(), fmt.Sprintf("%d collaborator(s); %s is not a collaborator", len(collaborators), c.login))
	default:
		return PassResult(c.ID(), fmt.Sprintf("%d collaborator(s)", len(collaborators)))
	}
}

func (c *CollaboratorAccess) swallow(rep Reporter, err error) Result {
	msg := fmt.Sprintf("Error occurred while retrieving collaborators: %s", gh.DescribeError(err, c.verbose))
	report(rep, c.ID(), output.LevelError, "", msg)
	return ErrorResult(c.ID(), msg, err)
}
