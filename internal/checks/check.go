package checks

import (
	"context"

	gh "repoguard/internal/github"
	"repoguard/internal/output"
)

// Provider is everything the checks need from the hosting API.
// *github.Client implements it; tests use a mock.
type Provider interface {
	GetBranch(ctx context.Context, name string) (*gh.Branch, error)
	ProtectBranch(ctx context.Context, name string, policy gh.ProtectionPolicy) error
	ListDeployKeys(ctx context.Context) ([]gh.DeployKey, error)
	ListCollaborators(ctx context.Context) ([]gh.Collaborator, error)
	SetCollaboratorPermission(ctx context.Context, login, level string) (*gh.PermissionUpdate, error)
}

// Reporter receives report lines as a check produces them, so output written
// before a failure is never lost.
type Reporter interface {
	Report(f output.Finding)
}

// Disposition says what an ERROR result means for the rest of the run.
type Disposition int

const (
	// DispositionAbort stops the run; later checks do not execute.
	DispositionAbort Disposition = iota
	// DispositionContinue confines the failure to the check.
	DispositionContinue
)

func (d Disposition) String() string {
	if d == DispositionContinue {
		return "continue"
	}
	return "abort"
}

type Check interface {
	ID() string
	Title() string
	Description() string

	// ErrorDisposition is consulted by the runner when Run returns StatusError.
	ErrorDisposition() Disposition

	// Run audits and, unless in dry-run mode, remediates. It never panics on
	// provider failures; they come back as a StatusError result.
	Run(ctx context.Context, rep Reporter) Result
}

// Options carries the configuration shared by the default checks.
type Options struct {
	CriticalBranches []string
	Policy           gh.ProtectionPolicy

	// TargetLogin is the only collaborator whose access may change. Empty disables remediation.
	TargetLogin      string
	TargetPermission string

	// ContinueOnError turns abort-on-error checks into continue-on-error ones.
	ContinueOnError bool
	DryRun          bool
	Verbose         bool
}

// DefaultCriticalBranches are the two conventional primary branch names, in audit order.
func DefaultCriticalBranches() []string {
	return []string{"master", "main"}
}

// Default returns the three checks in their fixed execution order.
func Default(p Provider, opts Options) []Check {
	return []Check{
		NewBranchProtection(p, opts),
		NewDeployKeys(p, opts),
		NewCollaboratorAccess(p, opts),
	}
}

func dispositionFor(continueOnError bool) Disposition {
	if continueOnError {
		return DispositionContinue
	}
	return DispositionAbort
}

func report(rep Reporter, check string, level output.Level, subject, message string) {
	if rep == nil {
		return
	}
	rep.Report(output.Finding{Check: check, Level: level, Subject: subject, Message: message})
}
