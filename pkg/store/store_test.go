package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rclIssues = `[
  {"id":"rcl-1","title":"Button focus ring inconsistent","url":"https://github.com/example/react-component-library/issues/1","project":"react-component-library","description":"Focus outline differs in Safari vs Chrome.","timestamp":"2025-11-05T09:15:00.000Z","inputTokens":1250,"outputTokens":320,"cacheTokens":0,"cost":0.08,"time":42,"status":"succeeded"},
  {"id":"rcl-2","title":"Modal traps focus","url":"https://github.com/example/react-component-library/issues/2","project":"react-component-library","description":"Escape key ignored.","timestamp":"2025-11-07T10:00:00.000Z","inputTokens":"900","outputTokens":"100","cacheTokens":"10","cost":"0.04","time":"20","status":"running"}
]`

const dtIssues = `[{"id":"dt-1","title":"Token sync script fails on Windows","url":"https://github.com/example/design-tokens/issues/12","project":"design-tokens","description":"Path separators break glob imports.","timestamp":"2025-10-20T13:00:00.000Z","inputTokens":800,"outputTokens":210,"cacheTokens":50,"cost":0.05,"time":30,"status":"running"}]`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newFixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "react-component-library.json", rclIssues)
	writeFile(t, dir, "design-tokens.json", dtIssues)
	writeFile(t, dir, "docs-site.json", `[]`)
	writeFile(t, dir, "README.md", "ignored")
	writeFile(t, dir, ".hidden.json", "ignored")
	return dir
}

func TestNew_InvalidDir(t *testing.T) {
	_, err := New(Config{}, logger.Noop())
	assert.ErrorIs(t, err, ErrInvalidDataDir)
}

func TestNew_MissingDir(t *testing.T) {
	s, err := New(Config{DataDir: filepath.Join(t.TempDir(), "absent")}, logger.Noop())
	require.NoError(t, err)
	assert.Empty(t, s.Projects())
}

func TestStore_Projects(t *testing.T) {
	s, err := New(Config{DataDir: newFixtureDir(t)}, logger.Noop())
	require.NoError(t, err)

	projects := s.Projects()
	require.Len(t, projects, 3)

	assert.Equal(t, "design-tokens", projects[0].Name)
	assert.Equal(t, "docs-site", projects[1].Name)
	assert.Equal(t, "react-component-library", projects[2].Name)

	rcl := projects[2]
	assert.Equal(t, "/projects/react-component-library/issues", rcl.URL)
	assert.Equal(t, "react-component-library", rcl.ID())
	assert.Equal(t, 2, rcl.IssueCount)
	assert.True(t, rcl.LastUpdated.Equal(time.Date(2025, 11, 7, 10, 0, 0, 0, time.UTC)))

	assert.Zero(t, projects[1].IssueCount)
	assert.True(t, projects[1].LastUpdated.IsZero())

	assert.Equal(t, []string{"design-tokens", "docs-site", "react-component-library"}, s.ProjectIDs())
}

func TestStore_Issues(t *testing.T) {
	s, err := New(Config{DataDir: newFixtureDir(t)}, logger.Noop())
	require.NoError(t, err)

	issues := s.Issues("react-component-library")
	require.Len(t, issues, 2)
	assert.Equal(t, "rcl-2", issues[0].ID, "newest first")
	assert.Equal(t, 900.0, issues[0].InputTokens)

	assert.Empty(t, s.Issues("unknown"))
	assert.NotNil(t, s.Issues("unknown"))
}

func TestStore_SkipsInvalidFiles(t *testing.T) {
	dir := newFixtureDir(t)
	writeFile(t, dir, "broken.json", `[{"id":"b"}]`)

	s, err := New(Config{DataDir: dir}, logger.Noop())
	require.NoError(t, err)

	assert.Len(t, s.Projects(), 3)
	skipped := s.Skipped()
	require.Contains(t, skipped, "broken")
	assert.Error(t, skipped["broken"])
}

func TestStore_Reload(t *testing.T) {
	dir := newFixtureDir(t)
	s, err := New(Config{DataDir: dir}, logger.Noop())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "docs-site.json")))
	writeFile(t, dir, "icon-pack.json", `[]`)
	require.NoError(t, s.Reload())

	assert.Equal(t, []string{"design-tokens", "icon-pack", "react-component-library"}, s.ProjectIDs())
}

func TestStore_FetchRecords(t *testing.T) {
	s, err := New(Config{DataDir: newFixtureDir(t)}, logger.Noop())
	require.NoError(t, err)

	var _ orchestrator.Fetcher = s

	records, err := s.FetchRecords(context.Background(), "react-component-library")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "react-component-library", records[0].GroupID)

	records, err = s.FetchRecords(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, records)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.FetchRecords(ctx, "react-component-library")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Aggregate(t *testing.T) {
	s, err := New(Config{DataDir: newFixtureDir(t)}, logger.Noop())
	require.NoError(t, err)

	result, err := orchestrator.Aggregate(context.Background(), s, s.ProjectIDs(), 2)
	require.NoError(t, err)

	assert.InDelta(t, 0.12, result.GroupTotals["react-component-library"], 1e-9)
	assert.InDelta(t, 0.05, result.GroupTotals["design-tokens"], 1e-9)
	assert.NotContains(t, result.GroupTotals, "docs-site")
}
