package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoguard/internal/config"
	"repoguard/internal/engine"
)

// fakeGitHub serves the endpoints an audit of acme/widgets touches.
type fakeGitHub struct {
	mux *http.ServeMux
	url string

	protectCalls    atomic.Int32
	keysCalls       atomic.Int32
	collabCalls     atomic.Int32
	permissionCalls atomic.Int32
	permissionBody  atomic.Value
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{mux: http.NewServeMux()}
	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)
	f.url = server.URL + "/"
	return f
}

func (f *fakeGitHub) branch(name string, protected bool) {
	f.mux.HandleFunc("/repos/acme/widgets/branches/"+name, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"name":%q,"protected":%t}`, name, protected)
	})
	f.mux.HandleFunc("/repos/acme/widgets/branches/"+name+"/protection", func(w http.ResponseWriter, r *http.Request) {
		f.protectCalls.Add(1)
		fmt.Fprint(w, `{}`)
	})
}

func (f *fakeGitHub) missingBranch(name string) {
	f.mux.HandleFunc("/repos/acme/widgets/branches/"+name, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Branch not found"}`)
	})
}

func (f *fakeGitHub) keys(body string) {
	f.mux.HandleFunc("/repos/acme/widgets/keys", func(w http.ResponseWriter, r *http.Request) {
		f.keysCalls.Add(1)
		fmt.Fprint(w, body)
	})
}

func (f *fakeGitHub) collaborators(status int, body string) {
	f.mux.HandleFunc("/repos/acme/widgets/collaborators", func(w http.ResponseWriter, r *http.Request) {
		f.collabCalls.Add(1)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

func (f *fakeGitHub) permission(login string, status int, body string) {
	f.mux.HandleFunc("/repos/acme/widgets/collaborators/"+login, func(w http.ResponseWriter, r *http.Request) {
		f.permissionCalls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		f.permissionBody.Store(string(raw))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

const twoCollaborators = `[
  {"login":"alice","permissions":{"admin":true,"pull":true,"push":true}},
  {"login":"ofek-test-user","permissions":{"admin":false,"pull":true,"push":false}}
]`

func auditConfig(t *testing.T, apiURL string, mutate func(c *config.Config)) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.GitHub.Token = "test-token"
	cfg.GitHub.APIURL = apiURL
	cfg.Target.Owner = "acme"
	cfg.Target.Repo = "widgets"
	cfg.Access.Login = "ofek-test-user"
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func outputLines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestRunAudit_ProtectsMainAndGrantsAdmin(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.branch("master", true)
	gh.branch("main", false)
	gh.keys(`[]`)
	gh.collaborators(http.StatusOK, twoCollaborators)
	gh.permission("ofek-test-user", http.StatusNoContent, "")

	var stdout, stderr bytes.Buffer
	code := runAudit(context.Background(), auditConfig(t, gh.url, nil), &stdout, &stderr)

	assert.Equal(t, engine.ExitOK, code, "stderr=%s", stderr.String())
	assert.Equal(t, []string{
		"Checking branch protection rules...",
		"Branch master is already protected.",
		"Branch main is not protected. Fixing...",
		"Branch main is now protected.",
		"Checking access control settings via deploy keys...",
		"Checking access control settings for collaborators...",
		"Collaborator: alice, Access Level: admin=true pull=true push=true",
		"Collaborator permission updated successfully.",
		"Collaborator: ofek-test-user, Access Level: admin=false pull=true push=false",
	}, outputLines(&stdout))
	assert.EqualValues(t, 1, gh.protectCalls.Load())
	assert.EqualValues(t, 1, gh.permissionCalls.Load())
	assert.JSONEq(t, `{"permission":"admin"}`, gh.permissionBody.Load().(string))
}

func TestRunAudit_DeployKeysAndRejectedPermission(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.branch("master", true)
	gh.branch("main", true)
	gh.keys(`[{"id":1,"title":"ci","read_only":true},{"id":2,"title":"deployer","read_only":false}]`)
	gh.collaborators(http.StatusOK, twoCollaborators)
	gh.permission("ofek-test-user", http.StatusForbidden, `{"message":"Must have admin rights"}`)

	var stdout, stderr bytes.Buffer
	code := runAudit(context.Background(), auditConfig(t, gh.url, nil), &stdout, &stderr)

	assert.Equal(t, engine.ExitOK, code)
	out := stdout.String()
	assert.Contains(t, out, "Deploy key 1: ci, Permissions:\n- Read only\n")
	assert.Contains(t, out, "Deploy key 2: deployer, Permissions:\n- Read/Write\n")
	assert.Contains(t, out, "Failed to update collaborator permission. Status code: 403\n"+
		`Response: {"message":"Must have admin rights"}`+"\n"+
		"Collaborator: ofek-test-user, Access Level: admin=false pull=true push=false\n")
	assert.Zero(t, gh.protectCalls.Load())
}

func TestRunAudit_MissingBranchAborts(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.missingBranch("master")
	gh.branch("main", false)
	gh.keys(`[]`)
	gh.collaborators(http.StatusOK, twoCollaborators)
	gh.permission("ofek-test-user", http.StatusNoContent, "")

	var stdout, stderr bytes.Buffer
	code := runAudit(context.Background(), auditConfig(t, gh.url, nil), &stdout, &stderr)

	assert.Equal(t, engine.ExitAborted, code)
	assert.Contains(t, stderr.String(), "Error: Critical branch master not found: GitHub API request failed (404 Not Found): Branch not found")
	assert.NotContains(t, stdout.String(), "deploy keys")
	assert.Zero(t, gh.protectCalls.Load())
	assert.Zero(t, gh.keysCalls.Load())
	assert.Zero(t, gh.collabCalls.Load())
	assert.Zero(t, gh.permissionCalls.Load())
}

func TestRunAudit_ContinueOnErrorSurvivesMissingBranch(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.missingBranch("master")
	gh.branch("main", false)
	gh.keys(`[]`)
	gh.collaborators(http.StatusOK, `[]`)

	var stdout, stderr bytes.Buffer
	cfg := auditConfig(t, gh.url, func(c *config.Config) { c.Runtime.ContinueOnError = true })
	code := runAudit(context.Background(), cfg, &stdout, &stderr)

	assert.Equal(t, engine.ExitOK, code)
	assert.Contains(t, stdout.String(), "Branch main is now protected.")
	assert.EqualValues(t, 1, gh.collabCalls.Load())
}

func TestRunAudit_CollaboratorFailureIsContained(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.branch("master", true)
	gh.branch("main", true)
	gh.keys(`[]`)
	gh.collaborators(http.StatusInternalServerError, `{"message":"boom"}`)

	var stdout, stderr bytes.Buffer
	code := runAudit(context.Background(), auditConfig(t, gh.url, nil), &stdout, &stderr)

	assert.Equal(t, engine.ExitOK, code)
	assert.Contains(t, stdout.String(), "Error occurred while retrieving collaborators: ")
	assert.Zero(t, gh.permissionCalls.Load())
}

func TestRunAudit_DryRunWritesNothing(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.branch("master", false)
	gh.branch("main", false)
	gh.keys(`[]`)
	gh.collaborators(http.StatusOK, twoCollaborators)
	gh.permission("ofek-test-user", http.StatusNoContent, "")

	var stdout, stderr bytes.Buffer
	cfg := auditConfig(t, gh.url, func(c *config.Config) { c.Runtime.DryRun = true })
	code := runAudit(context.Background(), cfg, &stdout, &stderr)

	assert.Equal(t, engine.ExitOK, code)
	assert.Contains(t, stdout.String(), "Branch master is not protected. Would protect (dry run).")
	assert.Contains(t, stdout.String(), "Would set collaborator ofek-test-user permission to admin (dry run).")
	assert.Zero(t, gh.protectCalls.Load())
	assert.Zero(t, gh.permissionCalls.Load())
}

func TestRunAudit_NDJSON(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.branch("master", true)
	gh.branch("main", true)
	gh.keys(`[]`)
	gh.collaborators(http.StatusOK, `[]`)

	var stdout, stderr bytes.Buffer
	cfg := auditConfig(t, gh.url, func(c *config.Config) { c.Output.ConsoleFormat = "ndjson" })
	code := runAudit(context.Background(), cfg, &stdout, &stderr)
	require.Equal(t, engine.ExitOK, code)

	var types []string
	for _, line := range outputLines(&stdout) {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
		types = append(types, ev["type"].(string))
	}
	require.NotEmpty(t, types)
	assert.Equal(t, "run.started", types[0])
	assert.Equal(t, "run.finished", types[len(types)-1])
	assert.Contains(t, types, "finding")
	assert.Contains(t, types, "check.finished")
}

func TestRunAudit_NoTokenIsSetupFailure(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	t.Setenv("PATH", t.TempDir())

	gh := newFakeGitHub(t)
	var stdout, stderr bytes.Buffer
	cfg := auditConfig(t, gh.url, func(c *config.Config) { c.GitHub.Token = "" })
	code := runAudit(context.Background(), cfg, &stdout, &stderr)

	assert.Equal(t, engine.ExitSetup, code)
	assert.Contains(t, stderr.String(), "GitHub auth token is required")
	assert.Empty(t, stdout.String())
}
