package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v81/github"
)

// StatusCode extracts the HTTP status from a go-github error, or 0.
func StatusCode(err error) int {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a GitHub 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// DescribeError renders err for the console report.
//
// Unless verbose, request URLs are stripped; structured GitHub errors become
// "GitHub API request failed (404 Not Found): Branch not found".
func DescribeError(err error, verbose bool) string {
	if err == nil {
		return "unknown error"
	}
	full := err.Error()
	if verbose {
		return full
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		if msg == "" {
			msg = "GitHub API request failed"
		}
		if er.Response != nil {
			status := fmt.Sprintf("%d %s", er.Response.StatusCode, http.StatusText(er.Response.StatusCode))
			return fmt.Sprintf("GitHub API request failed (%s): %s", status, msg)
		}
		return fmt.Sprintf("GitHub API request failed: %s", msg)
	}

	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return fmt.Sprintf("GitHub API rate limit exceeded: %s", strings.TrimSpace(rle.Message))
	}

	s := strings.TrimSpace(full)
	if scrubbed := scrubRequestFromErrorString(s); scrubbed != "" {
		return scrubbed
	}
	return s
}

func scrubRequestFromErrorString(s string) string {
	// Typical go-github error format:
	//   GET https://api.github.com/...: 403 Some message. []
	// The leading "GET https://...: " part is dropped.
	methods := []string{"GET ", "POST ", "PUT ", "PATCH ", "DELETE "}
	for _, m := range methods {
		idx := strings.Index(s, m)
		if idx < 0 {
			continue
		}
		rest := s[idx:]
		if i := strings.Index(rest, "://"); i >= 0 {
			if j := strings.Index(rest[i:], ": "); j >= 0 {
				return strings.TrimSpace(s[:idx] + rest[i+j+2:])
			}
		}
		return ""
	}
	return ""
}
