package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `[{"id":"rcl-1","title":"Button focus ring inconsistent","url":"https://github.com/example/react-component-library/issues/1","project":"react-component-library","description":"Focus outline differs in Safari vs Chrome.","timestamp":"2025-11-05T09:15:00.000Z","inputTokens":1250,"outputTokens":320,"cacheTokens":0,"cost":0.08,"time":42,"status":"succeeded"}]`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewHTTPFetcher_InvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "localhost:8080", "://bad"} {
		_, err := NewHTTPFetcher(HTTPConfig{BaseURL: base}, logger.Noop())
		assert.ErrorIs(t, err, ErrInvalidBaseURL, "base %q", base)
	}
}

func TestHTTPFetcher_FetchRecords(t *testing.T) {
	var gotPath string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	})

	f, err := NewHTTPFetcher(HTTPConfig{BaseURL: srv.URL + "/"}, logger.Noop())
	require.NoError(t, err)

	records, err := f.FetchRecords(context.Background(), "react-component-library")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "react-component-library", records[0].GroupID)
	assert.Equal(t, 0.08, records[0].Cost)
	assert.Equal(t, "/api/projects/react-component-library/issues", gotPath)
}

func TestHTTPFetcher_EscapesID(t *testing.T) {
	f, err := NewHTTPFetcher(HTTPConfig{BaseURL: "http://example.test"}, logger.Noop())
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/api/projects/a%2Fb%20c/issues", f.IssuesURL("a/b c"))
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	f, err := NewHTTPFetcher(HTTPConfig{BaseURL: srv.URL}, logger.Noop())
	require.NoError(t, err)

	_, err = f.FetchRecords(context.Background(), "docs-site")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "docs-site", statusErr.GroupID)
}

func TestHTTPFetcher_InvalidPayload(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"x"}]`))
	})

	f, err := NewHTTPFetcher(HTTPConfig{BaseURL: srv.URL}, logger.Noop())
	require.NoError(t, err)

	_, err = f.FetchRecords(context.Background(), "docs-site")
	assert.Error(t, err)
}

func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	f, err := NewHTTPFetcher(HTTPConfig{BaseURL: srv.URL}, logger.Noop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = f.FetchRecords(ctx, "docs-site")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// countingFetcher implements orchestrator.Fetcher for testing.
type countingFetcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingFetcher) FetchRecords(ctx context.Context, groupID string) ([]bucket.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []bucket.Record{{GroupID: groupID, Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Cost: 1}}, nil
}

func (c *countingFetcher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestCachedFetcher(t *testing.T) {
	next := &countingFetcher{}
	c, err := NewCachedFetcher(next, CacheConfig{TTL: time.Minute}, logger.Noop())
	require.NoError(t, err)
	defer c.Close()

	var _ orchestrator.Fetcher = c

	for i := 0; i < 3; i++ {
		records, err := c.FetchRecords(context.Background(), "a")
		require.NoError(t, err)
		require.Len(t, records, 1)
	}
	assert.Equal(t, 1, next.count())

	c.Invalidate("a")
	_, err = c.FetchRecords(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, next.count())

	c.Clear()
	_, err = c.FetchRecords(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 3, next.count())
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	next := &countingFetcher{err: errors.New("down")}
	c, err := NewCachedFetcher(next, CacheConfig{}, logger.Noop())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.FetchRecords(context.Background(), "a")
	assert.Error(t, err)
	_, err = c.FetchRecords(context.Background(), "a")
	assert.Error(t, err)
	assert.Equal(t, 2, next.count())
}

func TestHTTPFetcher_FetchProjects(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects", r.URL.Path)
		_, _ = w.Write([]byte(`[{"name":"rcl","url":"/projects/rcl/issues","lastUpdated":"2025-11-05T09:15:00Z","issueCount":2,"ideNames":[]}]`))
	})

	f, err := NewHTTPFetcher(HTTPConfig{BaseURL: srv.URL}, logger.Noop())
	require.NoError(t, err)

	projects, err := f.FetchProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "rcl", projects[0].ID())
	assert.Equal(t, 2, projects[0].IssueCount)
}

func TestHTTPFetcher_FetchProjectsStatusError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	f, err := NewHTTPFetcher(HTTPConfig{BaseURL: srv.URL}, logger.Noop())
	require.NoError(t, err)

	_, err = f.FetchProjects(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "project list")
}
