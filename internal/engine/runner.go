package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"repoguard/internal/checks"
	"repoguard/internal/output"
)

// Exit code contract:
// 0 = the run reached its end (contained check failures included)
// 1 = a check with abort disposition failed and later checks were skipped
// 3 = setup failed (config, token, client); no check ran
const (
	ExitOK      = 0
	ExitAborted = 1
	ExitSetup   = 3
)

// Output is where the runner sends lifecycle events and checks send findings.
// *output.Manager implements it.
type Output interface {
	Write(v any) error
	Report(f output.Finding)
}

type Runner struct {
	Repo   string
	Checks []checks.Check
	Out    Output
	Logger *zap.Logger
}

// Summary is the outcome of a run.
type Summary struct {
	Results []checks.Result
	// Aborted is set when a check with abort disposition returned StatusError.
	Aborted bool
	// AbortedBy is the ID of that check, empty on interruption.
	AbortedBy string
	// Err carries the aborting error.
	Err error
	// Message is the human-readable reason for the abort.
	Message string
}

func (s Summary) ExitCode() int {
	if s.Aborted {
		return ExitAborted
	}
	return ExitOK
}

func NewRunner(repo string, cs []checks.Check, out Output, logger *zap.Logger) *Runner {
	return &Runner{Repo: repo, Checks: cs, Out: out, Logger: logger}
}

// Run executes the checks sequentially in order. It stops early only when a
// check with abort disposition errors or ctx is done.
func (r *Runner) Run(ctx context.Context) Summary {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("repo", r.Repo))

	var summary Summary
	r.write(logger, output.Event{Type: "run.started", Repo: r.Repo, Checks: len(r.Checks)})

	for _, c := range r.Checks {
		if err := ctx.Err(); err != nil {
			summary.Aborted = true
			summary.Err = err
			summary.Message = fmt.Sprintf("run interrupted before %s: %v", c.ID(), err)
			logger.Warn("run interrupted", zap.String("next_check", c.ID()), zap.Error(err))
			break
		}

		r.write(logger, output.Event{Type: "check.started", Repo: r.Repo, Check: c.ID()})
		start := time.Now()

		res := c.Run(ctx, r.reporter())
		if res.CheckID == "" {
			res.CheckID = c.ID()
		}
		summary.Results = append(summary.Results, res)

		finished := output.Event{Type: "check.finished", Repo: r.Repo, Check: c.ID(), Status: string(res.Status)}
		if res.Status == checks.StatusError {
			finished.Error = res.Message
		}
		r.write(logger, finished)

		fields := []zap.Field{
			zap.String("check", c.ID()),
			zap.String("status", string(res.Status)),
			zap.Duration("elapsed", time.Since(start)),
		}
		if res.Changes > 0 {
			fields = append(fields, zap.Int("changes", res.Changes))
		}

		if res.Status != checks.StatusError {
			logger.Debug("check finished", fields...)
			continue
		}

		fields = append(fields, zap.Error(res.Err), zap.String("disposition", c.ErrorDisposition().String()))
		if c.ErrorDisposition() == checks.DispositionAbort {
			logger.Error("check failed; aborting run", fields...)
			summary.Aborted = true
			summary.AbortedBy = c.ID()
			summary.Err = res.Err
			summary.Message = res.Message
			break
		}
		logger.Warn("check failed; continuing", fields...)
	}

	r.write(logger, output.Event{Type: "run.finished", Repo: r.Repo, Aborted: summary.Aborted, ExitCode: summary.ExitCode()})
	return summary
}

func (r *Runner) reporter() checks.Reporter {
	if r.Out == nil {
		return nil
	}
	return r.Out
}

func (r *Runner) write(logger *zap.Logger, ev output.Event) {
	if r.Out == nil {
		return
	}
	if err := r.Out.Write(ev); err != nil {
		logger.Warn("write event", zap.String("type", ev.Type), zap.Error(err))
	}
}
