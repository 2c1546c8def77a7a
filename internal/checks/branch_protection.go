package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gh "repoguard/internal/github"
	"repoguard/internal/output"
)

type BranchProtection struct {
	provider        Provider
	branches        []string
	policy          gh.ProtectionPolicy
	continueOnError bool
	dryRun          bool
	verbose         bool
}

func NewBranchProtection(p Provider, opts Options) *BranchProtection {
	branches := opts.CriticalBranches
	if len(branches) == 0 {
		branches = DefaultCriticalBranches()
	}
	return &BranchProtection{
		provider:        p,
		branches:        branches,
		policy:          opts.Policy,
		continueOnError: opts.ContinueOnError,
		dryRun:          opts.DryRun,
		verbose:         opts.Verbose,
	}
}

func (c *BranchProtection) ID() string {
	return "branch-protection"
}

func (c *BranchProtection) Title() string {
	return "Critical Branches Are Protected"
}

func (c *BranchProtection) Description() string {
	return "Fetches each critical branch and, when it has no protection, enables classic branch protection " +
		"with a fixed policy: admins enforced, stale reviews dismissed, code owner review required, " +
		"one approving review required, force pushes and deletions disallowed.\n\n" +
		"Already protected branches are never modified, even when their policy differs."
}

func (c *BranchProtection) ErrorDisposition() Disposition {
	return dispositionFor(c.continueOnError)
}

func (c *BranchProtection) Run(ctx context.Context, rep Reporter) Result {
	report(rep, c.ID(), output.LevelInfo, "", "Checking branch protection rules...")

	var (
		errs     []error
		failed   []string
		fixed    int
		pending  []string
		verified int
	)

	for _, name := range c.branches {
		if err := ctx.Err(); err != nil {
			return ErrorResult(c.ID(), fmt.Sprintf("Branch protection check interrupted: %v", err), err)
		}

		branch, err := c.provider.GetBranch(ctx, name)
		if err != nil {
			msg := fmt.Sprintf("Failed to look up branch %s: %s", name, gh.DescribeError(err, c.verbose))
			if gh.IsNotFound(err) {
				msg = fmt.Sprintf("Critical branch %s not found: %s", name, gh.DescribeError(err, c.verbose))
			}
			report(rep, c.ID(), output.LevelError, name, msg)
			if !c.continueOnError {
				return ErrorResult(c.ID(), msg, err)
			}
			errs = append(errs, err)
			failed = append(failed, name)
			continue
		}

		if branch.Protected {
			report(rep, c.ID(), output.LevelInfo, name, fmt.Sprintf("Branch %s is already protected.", name))
			verified++
			continue
		}

		if c.dryRun {
			report(rep, c.ID(), output.LevelWarn, name, fmt.Sprintf("Branch %s is not protected. Would protect (dry run).", name))
			pending = append(pending, name)
			continue
		}

		report(rep, c.ID(), output.LevelWarn, name, fmt.Sprintf("Branch %s is not protected. Fixing...", name))
		if err := c.provider.ProtectBranch(ctx, name, c.policy); err != nil {
			msg := fmt.Sprintf("Failed to protect branch %s: %s", name, gh.DescribeError(err, c.verbose))
			report(rep, c.ID(), output.LevelError, name, msg)
			if !c.continueOnError {
				return ErrorResult(c.ID(), msg, err)
			}
			errs = append(errs, err)
			failed = append(failed, name)
			continue
		}
		report(rep, c.ID(), output.LevelFixed, name, fmt.Sprintf("Branch %s is now protected.", name))
		fixed++
	}

	switch {
	case len(errs) > 0:
		return ErrorResult(c.ID(), fmt.Sprintf("Could not audit branches: %s", strings.Join(failed, ", ")), errors.Join(errs...))
	case len(pending) > 0:
		return FailResult(c.ID(), fmt.Sprintf("Unprotected critical branches: %s", strings.Join(pending, ", ")))
	case fixed > 0:
		return FixedResult(c.ID(), fmt.Sprintf("Protected %d critical branch(es)", fixed), fixed)
	default:
		return PassResult(c.ID(), fmt.Sprintf("All %d critical branch(es) already protected", verified))
	}
}
