package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	gh "repoguard/internal/github"
	"repoguard/internal/logging"
)

const redactedValue = "REDACTED"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove fields, keep these in sync:
	// - Defaults() below
	// - flag bindings in internal/cli/root.go (flagKeys)
	GitHub   GitHub   `mapstructure:"github" yaml:"github"`
	Target   Target   `mapstructure:"target" yaml:"target"`
	Branches Branches `mapstructure:"branches" yaml:"branches"`
	Access   Access   `mapstructure:"access" yaml:"access"`
	Runtime  Runtime  `mapstructure:"runtime" yaml:"runtime"`
	Log      Log      `mapstructure:"log" yaml:"log"`
	Output   Output   `mapstructure:"output" yaml:"output"`
}

type GitHub struct {
	// Token is the access token (see --token). Empty falls back to GITHUB_TOKEN,
	// GH_TOKEN, then `gh auth token`.
	Token string `mapstructure:"token" yaml:"token"`

	// APIURL is the REST base URL (see --api-url). GitHub Enterprise Server
	// instances use https://HOST/api/v3/.
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
}

type Target struct {
	Owner string `mapstructure:"owner" yaml:"owner"`
	Repo  string `mapstructure:"repo" yaml:"repo"`
}

type Branches struct {
	// Critical lists branch names audited in order (see --branches).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Critical []string `mapstructure:"critical" yaml:"critical"`
}

type Access struct {
	// Login is the one collaborator whose permission is raised (see --login).
	// Empty means report only.
	Login string `mapstructure:"login" yaml:"login"`

	// Permission is the level granted to Login (see --permission).
	// Allowed values: pull, triage, push, maintain, admin.
	Permission string `mapstructure:"permission" yaml:"permission"`
}

type Runtime struct {
	// ContinueOnError keeps running after a branch or deploy key failure
	// (see --continue-on-error).
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error"`

	// DryRun reports what would change without writing (see --dry-run).
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`

	// Timeout bounds the whole run (see --timeout). 0 means no timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// Verbose enables debug logs, HTTP request logging and full error text.
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

type Log struct {
	// Level is one of: debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is one of: console, structured.
	Format string `mapstructure:"format" yaml:"format"`
}

type Output struct {
	// ConsoleFormat controls the stdout sink format (see --console-format).
	// Allowed values: text, ndjson.
	ConsoleFormat string `mapstructure:"console_format" yaml:"console_format"`
}

func New() *Config {
	return &Config{
		GitHub: GitHub{
			APIURL: gh.DefaultAPIURL,
		},
		Branches: Branches{
			Critical: []string{"master", "main"},
		},
		Access: Access{
			Permission: "admin",
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
	}
}

// Defaults returns New() flattened to viper keys.
func Defaults() map[string]any {
	c := New()
	return map[string]any{
		"github.token":              c.GitHub.Token,
		"github.api_url":            c.GitHub.APIURL,
		"target.owner":              c.Target.Owner,
		"target.repo":               c.Target.Repo,
		"branches.critical":         c.Branches.Critical,
		"access.login":              c.Access.Login,
		"access.permission":         c.Access.Permission,
		"runtime.continue_on_error": c.Runtime.ContinueOnError,
		"runtime.dry_run":           c.Runtime.DryRun,
		"runtime.timeout":           c.Runtime.Timeout,
		"runtime.verbose":           c.Runtime.Verbose,
		"log.level":                 c.Log.Level,
		"log.format":                c.Log.Format,
		"output.console_format":     c.Output.ConsoleFormat,
	}
}

var (
	ErrMissingTarget = errors.New("target owner and repo are required (--owner/--repo or REPOGUARD_TARGET_OWNER/REPOGUARD_TARGET_REPO)")
	ErrNoBranches    = errors.New("at least one critical branch is required")
)

func (c *Config) Validate() error {
	c.Target.Owner = strings.TrimSpace(c.Target.Owner)
	c.Target.Repo = strings.TrimSpace(c.Target.Repo)
	// Accept --repo OWNER/REPO when --owner is omitted.
	if c.Target.Owner == "" {
		if owner, repo, ok := strings.Cut(c.Target.Repo, "/"); ok {
			c.Target.Owner, c.Target.Repo = owner, repo
		}
	}
	if c.Target.Owner == "" || c.Target.Repo == "" {
		return ErrMissingTarget
	}
	if strings.Contains(c.Target.Owner, "/") || strings.Contains(c.Target.Repo, "/") {
		return fmt.Errorf("invalid target %q: expected OWNER and REPO without slashes", c.Target.Owner+"/"+c.Target.Repo)
	}

	c.Branches.Critical = splitCommaList(c.Branches.Critical)
	if len(c.Branches.Critical) == 0 {
		return ErrNoBranches
	}

	c.GitHub.Token = strings.TrimSpace(c.GitHub.Token)
	if strings.TrimSpace(c.GitHub.APIURL) == "" {
		c.GitHub.APIURL = gh.DefaultAPIURL
	}
	apiURL, err := gh.ParseAPIURL(c.GitHub.APIURL)
	if err != nil {
		return fmt.Errorf("invalid --api-url value: %w", err)
	}
	c.GitHub.APIURL = apiURL.String()

	c.Access.Login = strings.TrimSpace(c.Access.Login)
	c.Access.Permission = normalizeEnumValue(c.Access.Permission)
	if c.Access.Permission == "" {
		c.Access.Permission = "admin"
	}
	if !gh.ValidPermission(c.Access.Permission) {
		return fmt.Errorf("unsupported --permission: %s (must be one of: %s)", c.Access.Permission, strings.Join(gh.PermissionLevels(), ", "))
	}

	if c.Runtime.Timeout < 0 {
		return errors.New("--timeout must be >= 0")
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, ndjson)", c.Output.ConsoleFormat)
	}

	if c.Runtime.Verbose {
		c.Log.Level = string(logging.LevelDebug)
	}
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid --log-level value: %w", err)
	}
	c.Log.Level = string(level)
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return fmt.Errorf("invalid --log-format value: %w", err)
	}
	c.Log.Format = string(format)

	return nil
}

// FullName returns OWNER/REPO.
func (c *Config) FullName() string {
	return c.Target.Owner + "/" + c.Target.Repo
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	out.Branches.Critical = append([]string(nil), c.Branches.Critical...)
	if out.GitHub.Token != "" {
		out.GitHub.Token = redactedValue
	}
	return &out
}

// YAML renders the redacted configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, fmt.Errorf("render configuration: %w", err)
	}
	return data, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
