package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"repoguard/internal/checks"
	"repoguard/internal/config"
	"repoguard/internal/engine"
	gh "repoguard/internal/github"
	"repoguard/internal/logging"
	"repoguard/internal/output"
)

// runAudit executes one audit of cfg's target and returns the process exit
// code. A nil stdout means the colorized terminal; diagnostics and fatal
// errors go to stderr. cfg must already be validated.
func runAudit(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	logger, err := logging.NewLogger(logging.Level(cfg.Log.Level), logging.Format(cfg.Log.Format), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return engine.ExitSetup
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	client, err := newGitHubClient(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return engine.ExitSetup
	}

	outMgr, err := setupOutputManager(cfg, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating output sinks: %v\n", err)
		return engine.ExitSetup
	}
	defer outMgr.Close()
	outMgr.OnError(func(err error) {
		logger.Warn("write finding", zap.Error(err))
	})

	if cfg.Runtime.DryRun {
		logger.Info("dry run: no changes will be made")
	}

	cs := checks.Default(client, checkOptions(cfg))
	summary := engine.NewRunner(cfg.FullName(), cs, outMgr, logger).Run(ctx)
	if summary.Aborted {
		fmt.Fprintf(stderr, "Error: %s\n", summary.Message)
	}
	return summary.ExitCode()
}

func newGitHubClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gh.Client, error) {
	token, source, err := gh.ResolveToken(ctx, cfg.GitHub.Token, gh.WebHost(cfg.GitHub.APIURL))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve GitHub auth token: %w", err)
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub auth token is required (set REPOGUARD_GITHUB_TOKEN or GITHUB_TOKEN, or run 'gh auth login')")
	}
	logger.Debug("resolved github token", zap.String("source", string(source)))

	opts := []gh.Option{gh.WithBaseURL(cfg.GitHub.APIURL)}
	if cfg.Runtime.Verbose {
		opts = append(opts, gh.WithRequestLogging(logger))
	}
	client, err := gh.NewClient(ctx, token, cfg.Target.Owner, cfg.Target.Repo, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return client, nil
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	colorize := stdout == nil && !color.NoColor && cfg.Output.ConsoleFormat == output.FormatText
	sink, err := output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, colorize)
	if err != nil {
		return nil, err
	}
	outMgr := output.NewManager()
	if err := outMgr.AddSink(sink); err != nil {
		return nil, err
	}
	return outMgr, nil
}

func checkOptions(cfg *config.Config) checks.Options {
	return checks.Options{
		CriticalBranches: cfg.Branches.Critical,
		Policy:           gh.DefaultProtectionPolicy(),
		TargetLogin:      cfg.Access.Login,
		TargetPermission: cfg.Access.Permission,
		ContinueOnError:  cfg.Runtime.ContinueOnError,
		DryRun:           cfg.Runtime.DryRun,
		Verbose:          cfg.Runtime.Verbose,
	}
}
