package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repoguard/internal/config"
	"repoguard/internal/engine"
	"repoguard/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

const rootHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
  Every setting can be supplied as REPOGUARD_<SECTION>_<KEY>, e.g.
  REPOGUARD_TARGET_OWNER, REPOGUARD_ACCESS_LOGIN, REPOGUARD_RUNTIME_DRY_RUN.

  Token sources (in order):
  1) --token / REPOGUARD_GITHUB_TOKEN / github.token in repoguard.yaml
  2) GITHUB_TOKEN, then GH_TOKEN
  3) GitHub CLI (gh) authentication via gh auth token

  The token needs repository administration rights to protect branches
  and change collaborator permissions.

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var rootCmd = &cobra.Command{
	Use:   "repoguard",
	Short: "Audit and fix security settings of one GitHub repository",
	Long: `repoguard audits a single GitHub repository and fixes what it can.

Checks run in this order:
  1. branch-protection    protect critical branches (default: master, main)
  2. deploy-keys          report read-only vs read/write deploy keys
  3. collaborator-access  list collaborators; grant --login the --permission level

Only unprotected critical branches and the one configured login are ever
changed. Use --dry-run to see what would change.

Exit codes:
  0 = the run completed (contained check failures included)
  1 = a fatal check failure aborted the run (e.g. a missing critical branch)
  3 = setup failed (configuration, token or client); no check ran

Examples:
  # Audit with a token from the environment
  export GITHUB_TOKEN="<your_token>"
  repoguard --owner acme --repo widgets

  # Grant a collaborator admin, but only show what would change
  repoguard --repo acme/widgets --login ofek-test-user --dry-run

  # Stream machine-readable events
  repoguard --repo acme/widgets --console-format ndjson
`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitSetup)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitSetup)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := runAudit(ctx, cfg, nil, os.Stderr)
		stop()
		if code != engine.ExitOK {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	rootCmd.SetHelpTemplate(rootHelpTemplate)

	// MAINTAINER NOTE: every flag bound here must have an entry in
	// flags.ConfigKeys so the loader can layer it over file and env values.
	// Defaults shown in help mirror config.New().
	defaults := config.New()
	pf := rootCmd.PersistentFlags()
	pf.String(flags.FlagConfig, "", "Path to a YAML config file (default: ./repoguard.yaml or $HOME/.config/repoguard/repoguard.yaml)")

	// GitHub
	pf.String(flags.FlagToken, "", "GitHub access token (default: GITHUB_TOKEN, GH_TOKEN or gh auth token)")
	pf.String(flags.FlagAPIURL, defaults.GitHub.APIURL, "GitHub REST API base URL (GitHub Enterprise Server: https://HOST/api/v3/)")

	// Target
	pf.String(flags.FlagOwner, "", "Repository owner (user or organization)")
	pf.String(flags.FlagRepo, "", "Repository name, or OWNER/REPO when --owner is omitted")
	pf.StringSlice(flags.FlagBranches, defaults.Branches.Critical, "Critical branches to protect, in order (repeatable; comma-separated accepted)")

	// Access
	pf.String(flags.FlagLogin, "", "Collaborator login to grant --permission (empty = report only)")
	pf.String(flags.FlagPermission, defaults.Access.Permission, "Permission granted to --login: pull|triage|push|maintain|admin")

	// Runtime
	pf.Bool(flags.FlagContinueOnError, false, "Keep going after branch or deploy key failures instead of aborting")
	pf.Bool(flags.FlagDryRun, false, "Report what would change without writing anything")
	pf.Duration(flags.FlagTimeout, 0, "Overall timeout for the run (0 = none)")
	pf.Bool(flags.FlagVerbose, false, "Enable verbose logging (prints every GitHub API call and full error details)")

	// Output
	pf.String(flags.FlagConsoleFormat, defaults.Output.ConsoleFormat, "Console output format: text|ndjson")
	pf.String(flags.FlagLogLevel, defaults.Log.Level, "Diagnostic log level: debug|info|warn|error")
	pf.String(flags.FlagLogFormat, defaults.Log.Format, "Diagnostic log format: console|structured")
}

// loadConfig layers defaults, repoguard.yaml, REPOGUARD_* env and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(flags.FlagConfig)
	if err != nil {
		return nil, err
	}
	loader := config.NewLoader(config.DefaultSearchPaths())
	loader.BindFlags(cmd.Flags(), flags.ConfigKeys())
	loaded, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return loaded.Config, nil
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(engine.ExitSetup)
	}
}
