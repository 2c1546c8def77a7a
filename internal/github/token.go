package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type TokenSource string

const (
	TokenSourceConfig   TokenSource = "config"
	TokenSourceEnv      TokenSource = "env:GITHUB_TOKEN"
	TokenSourceEnvGH    TokenSource = "env:GH_TOKEN"
	TokenSourceGitHubCL TokenSource = "gh"
)

var tokenEnvVars = []struct {
	name   string
	source TokenSource
}{
	{"GITHUB_TOKEN", TokenSourceEnv},
	{"GH_TOKEN", TokenSourceEnvGH},
}

// ResolveToken picks the access token for host.
//
// Precedence:
//  1. configured (config file, REPOGUARD_GITHUB_TOKEN or --token)
//  2. GITHUB_TOKEN, then GH_TOKEN
//  3. GitHub CLI: `gh auth token -h <host>`
//
// An empty token with a nil error means nothing was found. The token is never logged.
func ResolveToken(ctx context.Context, configured, host string) (string, TokenSource, error) {
	if tok := strings.TrimSpace(configured); tok != "" {
		return tok, TokenSourceConfig, nil
	}

	for _, ev := range tokenEnvVars {
		if tok := strings.TrimSpace(os.Getenv(ev.name)); tok != "" {
			return tok, ev.source, nil
		}
	}

	if host == "" {
		host = "github.com"
	}
	tok, ok, err := tokenFromGitHubCLI(ctx, host)
	if err != nil {
		return "", "", err
	}
	if ok {
		return tok, TokenSourceGitHubCL, nil
	}
	return "", "", nil
}

func tokenFromGitHubCLI(ctx context.Context, host string) (string, bool, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", false, nil
	}

	// Bounded so a broken credential helper cannot hang the audit before it starts.
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", host)
	env := os.Environ()
	filtered := env[:0]
	for _, entry := range env {
		if strings.HasPrefix(entry, "GH_PAGER=") {
			continue
		}
		filtered = append(filtered, entry)
	}
	cmd.Env = append(filtered, "GH_PAGER=cat")

	out, runErr := cmd.Output()
	if runErr != nil {
		if cmdCtx.Err() != nil {
			return "", false, cmdCtx.Err()
		}
		// Not logged in for this host. gh output is not surfaced.
		return "", false, nil
	}

	tok := strings.TrimSpace(string(out))
	if tok == "" {
		return "", false, nil
	}
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", false, errors.New("invalid token returned by gh: contains whitespace")
	}
	return tok, true, nil
}
