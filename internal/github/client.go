package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultAPIURL is the REST root for github.com.
const DefaultAPIURL = "https://api.github.com/"

// Client is the single authenticated handle to one target repository.
//
// Reads go through the typed go-github client; the collaborator permission
// write is a raw request on HTTP. Both share the same transport, so auth and
// verbose logging apply to every call.
type Client struct {
	Client *github.Client
	HTTP   *http.Client

	owner string
	repo  string
}

type options struct {
	baseURL string
	logger  *zap.Logger
}

type Option func(*options)

// WithBaseURL points the client at another REST root, e.g. a GitHub
// Enterprise Server "https://ghe.example.com/api/v3/".
func WithBaseURL(raw string) Option {
	return func(o *options) {
		o.baseURL = raw
	}
}

// WithRequestLogging logs one debug line per request and response.
// Headers are never logged.
func WithRequestLogging(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("github api request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("github api error", zap.Duration("latency", dur), zap.Error(err))
		return resp, err
	}
	t.logger.Debug("github api response",
		zap.Int("status", resp.StatusCode),
		zap.String("status_text", http.StatusText(resp.StatusCode)),
		zap.Duration("latency", dur),
	)
	return resp, nil
}

// NewClient binds an authenticated client to owner/repo.
func NewClient(ctx context.Context, token, owner, repo string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github client: owner and repo are required")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	transport := http.DefaultTransport
	if o.logger != nil {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport}

	gc := github.NewClient(tc)
	if o.baseURL != "" {
		u, err := ParseAPIURL(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github client: %w", err)
		}
		gc.BaseURL = u
		gc.UploadURL = u
	}

	return &Client{
		Client: gc,
		HTTP:   tc,
		owner:  owner,
		repo:   repo,
	}, nil
}

// FullName returns OWNER/REPO.
func (c *Client) FullName() string { return c.owner + "/" + c.repo }

// ParseAPIURL validates a REST root and guarantees the trailing slash
// go-github requires on BaseURL.
func ParseAPIURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("api url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// WebHost maps a REST root to the host the gh CLI stores credentials under.
func WebHost(apiURL string) string {
	u, err := ParseAPIURL(apiURL)
	if err != nil {
		return "github.com"
	}
	host := strings.ToLower(u.Hostname())
	if host == "api.github.com" {
		return "github.com"
	}
	return host
}
