package flags

// Package flags defines canonical CLI flag names shared by the cobra wiring
// and the config loader's flag-to-key bindings.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().String(flags.FlagOwner, "", "...")
//	arg := "--" + flags.FlagOwner
const (
	FlagConfig = "config"

	// GitHub
	FlagToken  = "token"
	FlagAPIURL = "api-url"

	// Target
	FlagOwner    = "owner"
	FlagRepo     = "repo"
	FlagBranches = "branches"

	// Access
	FlagLogin      = "login"
	FlagPermission = "permission"

	// Runtime
	FlagContinueOnError = "continue-on-error"
	FlagDryRun          = "dry-run"
	FlagTimeout         = "timeout"
	FlagVerbose         = "verbose"

	// Output
	FlagConsoleFormat = "console-format"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
)

// ConfigKeys maps every config-bound flag to its configuration key.
func ConfigKeys() map[string]string {
	return map[string]string{
		"github.token":              FlagToken,
		"github.api_url":            FlagAPIURL,
		"target.owner":              FlagOwner,
		"target.repo":               FlagRepo,
		"branches.critical":         FlagBranches,
		"access.login":              FlagLogin,
		"access.permission":         FlagPermission,
		"runtime.continue_on_error": FlagContinueOnError,
		"runtime.dry_run":           FlagDryRun,
		"runtime.timeout":           FlagTimeout,
		"runtime.verbose":           FlagVerbose,
		"output.console_format":     FlagConsoleFormat,
		"log.level":                 FlagLogLevel,
		"log.format":                FlagLogFormat,
	}
}
