// Package project provides the project model listed on the dashboard home
// page and the column sorting applied to project tables.
package project

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ErrInvalidColumn is returned when a sort column name is not recognized.
var ErrInvalidColumn = errors.New("invalid sort column: must be name or lastUpdated")

// ErrInvalidOrder is returned when a sort order name is not recognized.
var ErrInvalidOrder = errors.New("invalid sort order: must be asc or desc")

// Project is a workspace whose issues carry token usage and cost.
type Project struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	LastUpdated time.Time `json:"lastUpdated"`
	IssueCount  int       `json:"issueCount"`
	IDENames    []string  `json:"ideNames"`
}

var (
	issuesPath   = regexp.MustCompile(`/projects/([^/]+)/issues/?$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// ID returns the project's slug.
//
// The slug is read from a "/projects/<slug>/issues" URL, falling back to
// the last URL path segment and finally to the slugified name.
func (p Project) ID() string {
	if m := issuesPath.FindStringSubmatch(p.URL); m != nil {
		return m[1]
	}

	if trimmed := strings.Trim(p.URL, "/"); trimmed != "" {
		if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
			return trimmed[idx+1:]
		}
		return trimmed
	}

	return Slugify(p.Name)
}

// IssuesURL returns the dashboard path listing a project's issues.
func IssuesURL(slug string) string {
	return "/projects/" + slug + "/issues"
}

// Slugify lowercases name and collapses runs of non-alphanumerics into
// single dashes, trimming leading and trailing dashes.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Merge combines projects sharing a slug. IssueCount and LastUpdated come
// from the first occurrence that has issues; IDE names are unioned and sorted.
func Merge(lists ...[]Project) []Project {
	merged := make([]Project, 0)
	index := make(map[string]int)

	for _, list := range lists {
		for _, p := range list {
			id := p.ID()
			i, ok := index[id]
			if !ok {
				p.IDENames = uniqueSorted(p.IDENames)
				index[id] = len(merged)
				merged = append(merged, p)
				continue
			}

			existing := &merged[i]
			if existing.IssueCount == 0 && p.IssueCount > 0 {
				existing.IssueCount = p.IssueCount
				existing.LastUpdated = p.LastUpdated
			}
			existing.IDENames = uniqueSorted(append(existing.IDENames, p.IDENames...))
		}
	}

	return merged
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
