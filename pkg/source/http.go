// Package source provides orchestrator.Fetcher implementations that load
// cost records from a remote dashboard API, optionally through a cache.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/project"
)

// HTTPConfig holds the configuration for the HTTP fetcher.
type HTTPConfig struct {
	// BaseURL is the dashboard origin, e.g. http://localhost:8080.
	BaseURL string

	// Timeout bounds each request when Client is nil.
	// Default: 10 seconds.
	Timeout time.Duration

	// Client overrides the HTTP client.
	Client *http.Client
}

// HTTPFetcher loads issues from GET {base}/api/projects/{id}/issues.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
	logger logger.Logger
}

// NewHTTPFetcher creates a fetcher for the dashboard at cfg.BaseURL.
func NewHTTPFetcher(cfg HTTPConfig, log logger.Logger) (*HTTPFetcher, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrInvalidBaseURL
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTPFetcher{
		base:   base,
		client: client,
		logger: log,
	}, nil
}

// IssuesURL returns the issues endpoint for groupID.
func (f *HTTPFetcher) IssuesURL(groupID string) string {
	return f.base.String() + "/api/projects/" + url.PathEscape(groupID) + "/issues"
}

// FetchIssues loads and validates the issues of one project.
func (f *HTTPFetcher) FetchIssues(ctx context.Context, groupID string) ([]issue.Issue, error) {
	body, err := f.get(ctx, f.IssuesURL(groupID), groupID)
	if err != nil {
		return nil, err
	}

	issues, err := issue.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("invalid payload for %s: %w", groupID, err)
	}

	f.logger.Debug("fetched issues",
		"project", groupID,
		"issues", len(issues))

	return issues, nil
}

// FetchProjects loads the project list from GET {base}/api/projects.
func (f *HTTPFetcher) FetchProjects(ctx context.Context) ([]project.Project, error) {
	body, err := f.get(ctx, f.base.String()+"/api/projects", "")
	if err != nil {
		return nil, err
	}

	var projects []project.Project
	if err := sonic.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("invalid project list: %w", err)
	}
	return projects, nil
}

// get performs a GET and returns the size-limited body of a 2xx response.
func (f *HTTPFetcher) get(ctx context.Context, endpoint, groupID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{
			GroupID:    groupID,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, issue.MaxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// FetchRecords implements orchestrator.Fetcher.
func (f *HTTPFetcher) FetchRecords(ctx context.Context, groupID string) ([]bucket.Record, error) {
	issues, err := f.FetchIssues(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return issue.Records(issues), nil
}
