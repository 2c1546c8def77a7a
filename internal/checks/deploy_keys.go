package checks

import (
	"context"
	"fmt"
	"strconv"

	gh "repoguard/internal/github"
	"repoguard/internal/output"
)

// DeployKeys is report-only: it never writes.
type DeployKeys struct {
	provider        Provider
	continueOnError bool
	verbose         bool
}

func NewDeployKeys(p Provider, opts Options) *DeployKeys {
	return &DeployKeys{
		provider:        p,
		continueOnError: opts.ContinueOnError,
		verbose:         opts.Verbose,
	}
}

func (c *DeployKeys) ID() string {
	return "deploy-keys"
}

func (c *DeployKeys) Title() string {
	return "Deploy Key Access Report"
}

func (c *DeployKeys) Description() string {
	return "Lists every deploy key on the repository and reports whether it is read-only or read/write. " +
		"Keys are never modified."
}

func (c *DeployKeys) ErrorDisposition() Disposition {
	return dispositionFor(c.continueOnError)
}

func (c *DeployKeys) Run(ctx context.Context, rep Reporter) Result {
	report(rep, c.ID(), output.LevelInfo, "", "Checking access control settings via deploy keys...")

	keys, err := c.provider.ListDeployKeys(ctx)
	if err != nil {
		msg := fmt.Sprintf("Failed to list deploy keys: %s", gh.DescribeError(err, c.verbose))
		report(rep, c.ID(), output.LevelError, "", msg)
		return ErrorResult(c.ID(), msg, err)
	}

	readWrite := 0
	for _, k := range keys {
		id := strconv.FormatInt(k.ID, 10)
		report(rep, c.ID(), output.LevelInfo, id, fmt.Sprintf("Deploy key %d: %s, Permissions:", k.ID, k.Title))
		if k.ReadOnly {
			report(rep, c.ID(), output.LevelInfo, id, "- Read only")
		} else {
			report(rep, c.ID(), output.LevelWarn, id, "- Read/Write")
			readWrite++
		}
	}

	return PassResult(c.ID(), fmt.Sprintf("%d deploy key(s), %d with read/write access", len(keys), readWrite))
}
