// Package store holds the issue data served by the dashboard. Each
// project lives in <dataDir>/<projectID>.json as a JSON array of issues.
//
// Example usage:
//
//	s, err := store.New(store.Config{DataDir: "./data"}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range s.Projects() {
//	    fmt.Printf("%s: %d issues\n", p.Name, p.IssueCount)
//	}
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/project"
)

// FileExt is the extension of project data files.
const FileExt = ".json"

// ErrInvalidDataDir is returned when the data directory path is empty or not a directory.
var ErrInvalidDataDir = errors.New("invalid data directory")

// Config holds the configuration for the store.
type Config struct {
	// DataDir holds one <projectID>.json file per project.
	DataDir string
}

// Store is an in-memory snapshot of the data directory.
type Store struct {
	dir    string
	logger logger.Logger

	mu      sync.RWMutex
	issues  map[string][]issue.Issue
	skipped map[string]error
}

// New creates a store and loads the data directory.
//
// A missing directory yields an empty store. Files that fail to parse are
// skipped and reported by Skipped.
func New(cfg Config, log logger.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, ErrInvalidDataDir
	}

	s := &Store{
		dir:     cfg.DataDir,
		logger:  log,
		issues:  make(map[string][]issue.Issue),
		skipped: make(map[string]error),
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Reload rereads the data directory and swaps in the new snapshot.
// Readers observe either the old or the new snapshot, never a mix.
func (s *Store) Reload() error {
	issues, skipped, err := load(s.dir, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.issues = issues
	s.skipped = skipped
	s.mu.Unlock()

	s.logger.Info("data loaded",
		"dir", s.dir,
		"projects", len(issues),
		"skipped", len(skipped))
	return nil
}

func load(dir string, log logger.Logger) (map[string][]issue.Issue, map[string]error, error) {
	issues := make(map[string][]issue.Issue)
	skipped := make(map[string]error)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("data directory not found", "dir", dir)
			return issues, skipped, nil
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDataDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsDataFile(entry.Name()) {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), FileExt)
		path := filepath.Join(dir, entry.Name())

		// #nosec G304: path comes from the configured data directory
		data, readErr := os.ReadFile(path) // nolint:gosec
		if readErr != nil {
			log.Warn("failed to read data file", "path", path, "error", readErr)
			skipped[id] = readErr
			continue
		}

		parsed, parseErr := issue.Parse(data)
		if parseErr != nil {
			log.Warn("skipping invalid data file", "path", path, "error", parseErr)
			skipped[id] = parseErr
			continue
		}

		issues[id] = parsed
	}

	return issues, skipped, nil
}

// IsDataFile reports whether name looks like a project data file.
func IsDataFile(name string) bool {
	return strings.HasSuffix(name, FileExt) && !strings.HasPrefix(name, ".")
}

// Projects returns one project per data file, ordered by id.
//
// LastUpdated is the newest issue timestamp (zero for empty projects).
func (s *Store) Projects() []project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]project.Project, 0, len(s.issues))
	for id, issues := range s.issues {
		projects = append(projects, project.Project{
			Name:        id,
			URL:         project.IssuesURL(id),
			LastUpdated: issue.Latest(issues),
			IssueCount:  len(issues),
			IDENames:    []string{},
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})
	return projects
}

// ProjectIDs returns every loaded project id, sorted.
func (s *Store) ProjectIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.issues))
	for id := range s.issues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Issues returns a copy of the project's issues, newest first.
// Unknown projects yield an empty slice.
func (s *Store) Issues(projectID string) []issue.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return issue.SortByTimestampDesc(s.issues[projectID])
}

// Skipped returns the files that failed to load, keyed by project id.
func (s *Store) Skipped() map[string]error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]error, len(s.skipped))
	for id, err := range s.skipped {
		out[id] = err
	}
	return out
}

// FetchRecords implements orchestrator.Fetcher.
func (s *Store) FetchRecords(ctx context.Context, projectID string) ([]bucket.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return issue.Records(s.issues[projectID]), nil
}
