package config

import (
	"os"
	"path/filepath"

	"github.com/0xmhha/cost-monitor/pkg/discovery"
)

// configHome returns ~/.config/cost-monitor, or "." without a home dir.
func configHome() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "cost-monitor")
}

// defaultDataDir returns ./data when it exists, else ~/.config/cost-monitor/data.
func defaultDataDir() string {
	if info, err := os.Stat("data"); err == nil && info.IsDir() {
		return "data"
	}
	return filepath.Join(configHome(), "data")
}

func defaultIDELogRoot() string {
	return discovery.DefaultRoot()
}

// defaultDBPath returns ~/.config/cost-monitor/preferences.db.
func defaultDBPath() string {
	return filepath.Join(configHome(), "preferences.db")
}

// DefaultConfigPath returns ~/.config/cost-monitor/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configHome(), "config.yaml")
}
