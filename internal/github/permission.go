package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseBody bounds how much of an error body is kept for reporting.
const maxResponseBody = 64 << 10

type permissionRequest struct {
	Permission string `json:"permission"`
}

func collaboratorEndpoint(base *url.URL, owner, repo, login string) (*url.URL, error) {
	if base == nil {
		return nil, fmt.Errorf("collaborator permission: base url is nil")
	}
	rel := fmt.Sprintf("repos/%s/%s/collaborators/%s",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(login))
	ref, err := url.Parse(rel)
	if err != nil {
		return nil, fmt.Errorf("collaborator permission: %w", err)
	}
	return base.ResolveReference(ref), nil
}

// SetCollaboratorPermission sends PUT /repos/{owner}/{repo}/collaborators/{login}
// with {"permission": level}.
//
// This is a raw request on the shared authenticated transport rather than a
// go-github call. Any HTTP status is returned as a PermissionUpdate for the
// caller to judge (see PermissionUpdate.Applied); only transport and request
// construction failures are errors.
func (c *Client) SetCollaboratorPermission(ctx context.Context, login, level string) (*PermissionUpdate, error) {
	if ctx == nil {
		return nil, fmt.Errorf("collaborator permission: ctx is nil")
	}
	if c == nil || c.Client == nil || c.HTTP == nil {
		return nil, fmt.Errorf("collaborator permission: client is nil")
	}
	if strings.TrimSpace(login) == "" {
		return nil, fmt.Errorf("collaborator permission: login is empty")
	}

	endpoint, err := collaboratorEndpoint(c.Client.BaseURL, c.owner, c.repo, login)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(permissionRequest{Permission: level})
	if err != nil {
		return nil, fmt.Errorf("collaborator permission: marshal request: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("collaborator permission: build request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/vnd.github+json")
	hreq.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	hresp, err := c.HTTP.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("collaborator permission: do request: %w", err)
	}
	defer hresp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(hresp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("collaborator permission: read response: %w", err)
	}

	return &PermissionUpdate{
		StatusCode: hresp.StatusCode,
		Body:       string(raw),
	}, nil
}
