// Package discovery finds projects that JetBrains IDEs keep caches for.
//
// IDE caches are laid out as <root>/<ide>/projects/<project>/. A project
// opened in several IDEs is reported once with every IDE name attached.
//
// Example usage:
//
//	d := discovery.New([]string{discovery.DefaultRoot()}, logger.Default())
//	projects, err := d.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range projects {
//	    fmt.Printf("%s (%s)\n", p.Name, strings.Join(p.IDENames, ", "))
//	}
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/project"
)

// projectsDirName is the per-IDE subdirectory holding project caches.
const projectsDirName = "projects"

// Logger defines the logging interface used by the discovery package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Discoverer provides methods for discovering IDE projects.
type Discoverer interface {
	// Discover scans configured roots and returns one project per distinct
	// project directory name, ordered by name.
	//
	// Missing roots are skipped without error. Each project's URL points at
	// its issues page and IDENames lists the IDEs that cache it, sorted.
	Discover() ([]project.Project, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	roots  []string
	logger Logger
}

// New creates a new Discoverer instance.
//
// Parameters:
//   - roots: IDE cache roots to scan (e.g., ~/.cache/JetBrains)
//   - logger: Logger instance for diagnostic messages
func New(roots []string, logger Logger) Discoverer {
	return &discoverer{
		roots:  roots,
		logger: logger,
	}
}

// DefaultRoot returns the JetBrains cache directory for the current OS.
func DefaultRoot() string {
	return defaultRoot(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func defaultRoot(goos string, getenv func(string) string, home func() (string, error)) string {
	switch goos {
	case "windows":
		return filepath.Join(getenv("APPDATA"), "..", "Local", "JetBrains")
	case "darwin":
		dir := getenv("HOME")
		if dir == "" {
			dir, _ = home()
		}
		return filepath.Join(dir, "Library", "Caches", "JetBrains")
	default:
		dir, err := home()
		if err != nil {
			dir = getenv("HOME")
		}
		return filepath.Join(dir, ".cache", "JetBrains")
	}
}

// found accumulates what the scan learned about one project name.
type found struct {
	ides    map[string]struct{}
	modTime time.Time
}

// Discover implements Discoverer.Discover.
func (d *discoverer) Discover() ([]project.Project, error) {
	byName := make(map[string]*found)

	for _, root := range d.roots {
		expanded := expandHome(root)

		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				d.logger.Debug("IDE root not found, skipping", "path", expanded)
				continue
			}
			return nil, fmt.Errorf("failed to stat directory %s: %w", expanded, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, expanded)
		}

		if err := d.scanRoot(expanded, byName); err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", expanded, err)
		}
	}

	projects := make([]project.Project, 0, len(byName))
	for name, f := range byName {
		ides := make([]string, 0, len(f.ides))
		for ide := range f.ides {
			ides = append(ides, ide)
		}
		sort.Strings(ides)

		projects = append(projects, project.Project{
			Name:        name,
			URL:         project.IssuesURL(project.Slugify(name)),
			LastUpdated: f.modTime,
			IDENames:    ides,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})

	d.logger.Info("discovery complete", "total_projects", len(projects))
	return projects, nil
}

// scanRoot reads <root>/<ide>/projects/<project> directories.
func (d *discoverer) scanRoot(root string, byName map[string]*found) error {
	ideEntries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, ideEntry := range ideEntries {
		if !ideEntry.IsDir() {
			continue
		}

		ide := ideEntry.Name()
		projectsDir := filepath.Join(root, ide, projectsDirName)
		projectEntries, err := os.ReadDir(projectsDir)
		if err != nil {
			d.logger.Debug("no projects directory", "ide", ide, "path", projectsDir)
			continue
		}

		for _, entry := range projectEntries {
			if !entry.IsDir() {
				continue
			}

			f, ok := byName[entry.Name()]
			if !ok {
				f = &found{ides: make(map[string]struct{})}
				byName[entry.Name()] = f
			}
			f.ides[ide] = struct{}{}

			if info, err := entry.Info(); err == nil && info.ModTime().After(f.modTime) {
				f.modTime = info.ModTime()
			}
		}

		d.logger.Debug("scanned IDE directory",
			"ide", ide,
			"projects_found", len(projectEntries))
	}

	return nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
