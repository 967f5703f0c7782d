package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfig   = "COST_MONITOR_CONFIG"
	EnvDataDir  = "COST_MONITOR_DATA_DIR"
	EnvDB       = "COST_MONITOR_DB"
	EnvAddr     = "COST_MONITOR_ADDR"
	EnvLogLevel = "COST_MONITOR_LOG_LEVEL"
	EnvTZ       = "COST_MONITOR_TZ"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load merges defaults, the config file and environment variables,
	// then validates the result.
	Load() (*Config, error)

	// LoadFromFile reads a single YAML file without defaults.
	LoadFromFile(path string) (*Config, error)

	// Path returns the config file Load would read, or "".
	Path() string
}

type loader struct {
	configPath string
	getenv     func(string) string
}

// NewLoader creates a configuration loader.
//
// With an empty configPath it uses $COST_MONITOR_CONFIG, then
// ./config.yaml, then ~/.config/cost-monitor/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
		getenv:     os.Getenv,
	}
}

func (l *loader) explicitPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	return l.getenv(EnvConfig)
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	if p := l.explicitPath(); p != "" {
		return p
	}
	return findConfigFile()
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	explicit := l.explicitPath()
	path := explicit
	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		fileCfg, err := l.LoadFromFile(path)
		if err != nil {
			if explicit != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
		}
	}

	cfg = applyEnvVars(cfg, l.getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

func findConfigFile() string {
	for _, path := range []string{"./config.yaml", DefaultConfigPath()} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// mergeConfigs overlays the non-zero values of override onto base.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	setString(&result.Data.DataDir, override.Data.DataDir)
	setString(&result.Data.IDELogRoot, override.Data.IDELogRoot)

	setString(&result.Server.Addr, override.Server.Addr)
	if override.Server.ShutdownTimeout > 0 {
		result.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Fetch.Concurrency > 0 {
		result.Fetch.Concurrency = override.Fetch.Concurrency
	}
	if override.Fetch.Timeout > 0 {
		result.Fetch.Timeout = override.Fetch.Timeout
	}
	setString(&result.Fetch.BaseURL, override.Fetch.BaseURL)
	if override.Fetch.CacheTTL > 0 {
		result.Fetch.CacheTTL = override.Fetch.CacheTTL
	}
	if override.Fetch.CacheMaxCost > 0 {
		result.Fetch.CacheMaxCost = override.Fetch.CacheMaxCost
	}

	setString(&result.Buckets.Timezone, override.Buckets.Timezone)

	if override.Watch.Debounce > 0 {
		result.Watch.Debounce = override.Watch.Debounce
	}
	if override.Watch.RefreshInterval > 0 {
		result.Watch.RefreshInterval = override.Watch.RefreshInterval
	}

	setString(&result.Storage.DBPath, override.Storage.DBPath)

	setString(&result.Logging.Level, override.Logging.Level)
	setString(&result.Logging.Output, override.Logging.Output)
	setString(&result.Logging.Format, override.Logging.Format)

	return &result
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// applyEnvVars applies COST_MONITOR_* overrides.
func applyEnvVars(cfg *Config, getenv func(string) string) *Config {
	result := *cfg

	setString(&result.Data.DataDir, strings.TrimSpace(getenv(EnvDataDir)))
	setString(&result.Storage.DBPath, strings.TrimSpace(getenv(EnvDB)))
	setString(&result.Server.Addr, strings.TrimSpace(getenv(EnvAddr)))
	setString(&result.Logging.Level, strings.ToLower(strings.TrimSpace(getenv(EnvLogLevel))))
	setString(&result.Buckets.Timezone, strings.TrimSpace(getenv(EnvTZ)))

	return &result
}

// Load creates a default loader and loads configuration.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile loads configuration with path as the config file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file with 0600 permissions,
// creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
