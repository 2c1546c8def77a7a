package github

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeGHStub installs a fake gh executable that runs script and returns its directory.
func writeGHStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses a shell script gh stub")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gh"), []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return dir
}

func TestResolveToken(t *testing.T) {
	t.Run("configured token wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveToken(context.Background(), " configured ", "github.com")
		require.NoError(t, err)
		assert.Equal(t, "configured", tok)
		assert.Equal(t, TokenSourceConfig, src)
	})

	t.Run("GITHUB_TOKEN before GH_TOKEN", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("GH_TOKEN", "gh-env-token")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveToken(context.Background(), "", "github.com")
		require.NoError(t, err)
		assert.Equal(t, "env-token", tok)
		assert.Equal(t, TokenSourceEnv, src)
	})

	t.Run("GH_TOKEN used when GITHUB_TOKEN empty", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "gh-env-token")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveToken(context.Background(), "", "github.com")
		require.NoError(t, err)
		assert.Equal(t, "gh-env-token", tok)
		assert.Equal(t, TokenSourceEnvGH, src)
	})

	t.Run("gh cli used for the requested host", func(t *testing.T) {
		dir := writeGHStub(t, `[ "$4" = "ghe.example.com" ] && echo ghe-token`)
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "")
		t.Setenv("PATH", dir)

		tok, src, err := ResolveToken(context.Background(), "", "ghe.example.com")
		require.NoError(t, err)
		assert.Equal(t, "ghe-token", tok)
		assert.Equal(t, TokenSourceGitHubCL, src)
	})

	t.Run("empty when nothing is available", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveToken(context.Background(), "", "")
		require.NoError(t, err)
		assert.Empty(t, tok)
		assert.Empty(t, src)
	})

	t.Run("gh failure treated as no token", func(t *testing.T) {
		dir := writeGHStub(t, "echo 'not logged in' >&2; exit 1")
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "")
		t.Setenv("PATH", dir)

		tok, _, err := ResolveToken(context.Background(), "", "github.com")
		require.NoError(t, err)
		assert.Empty(t, tok)
	})

	t.Run("gh multi-line output is rejected", func(t *testing.T) {
		dir := writeGHStub(t, `printf 'line1\nline2\n'`)
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "")
		t.Setenv("PATH", dir)

		_, _, err := ResolveToken(context.Background(), "", "github.com")
		assert.ErrorContains(t, err, "contains whitespace")
	})

	t.Run("canceled context surfaces", func(t *testing.T) {
		dir := writeGHStub(t, "echo gh-token")
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("GH_TOKEN", "")
		t.Setenv("PATH", dir)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := ResolveToken(ctx, "", "github.com")
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
