// Package config provides configuration management for cost-monitor.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("data dir: %s\n", cfg.Data.DataDir)
package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/logger"
)

// Config represents the complete application configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Server  ServerConfig  `yaml:"server"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Buckets BucketsConfig `yaml:"buckets"`
	Watch   WatchConfig   `yaml:"watch"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates project data.
type DataConfig struct {
	// Directory holding one <projectID>.json issue file per project.
	DataDir string `yaml:"data_dir"`

	// Root of the IDE cache tree scanned for projects.
	IDELogRoot string `yaml:"ide_log_root"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// FetchConfig tunes record fetching and aggregation.
type FetchConfig struct {
	// Maximum concurrent group fetches.
	Concurrency int `yaml:"concurrency"`

	// Per-request aggregation timeout. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`

	// BaseURL of a remote cost-monitor API. Empty reads the local data dir.
	BaseURL string `yaml:"base_url"`

	// Lifetime of cached remote records.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Cache capacity in records.
	CacheMaxCost int64 `yaml:"cache_max_cost"`
}

// BucketsConfig controls calendar arithmetic.
type BucketsConfig struct {
	// IANA zone name, "Local" or "UTC".
	Timezone string `yaml:"timezone"`
}

// Location resolves Timezone.
func (b BucketsConfig) Location() (*time.Location, error) {
	switch b.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, b.Timezone)
	}
	return loc, nil
}

// WatchConfig contains live mode settings.
type WatchConfig struct {
	// Quiet period before a data file change triggers a reload.
	Debounce time.Duration `yaml:"debounce"`

	// Periodic refresh independent of file changes.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB preferences file.
	DBPath string `yaml:"db_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
	Format string `yaml:"format"`
}

// Logger returns the logger configuration.
func (l LoggingConfig) Logger() logger.Config {
	return logger.Config{Level: l.Level, Output: l.Output, Format: l.Format}
}

// Validate checks the configuration and returns the first violation.
func (c *Config) Validate() error {
	if c.Data.DataDir == "" {
		return ErrNoDataDir
	}

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddr, c.Server.Addr)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if c.Fetch.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Fetch.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Fetch.BaseURL != "" {
		u, err := url.Parse(c.Fetch.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s", ErrInvalidBaseURL, c.Fetch.BaseURL)
		}
	}
	if c.Fetch.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}
	if c.Fetch.CacheMaxCost <= 0 {
		return ErrInvalidCacheSize
	}

	if _, err := c.Buckets.Location(); err != nil {
		return err
	}

	if c.Watch.Debounce <= 0 {
		return ErrInvalidDebounce
	}
	if c.Watch.RefreshInterval <= 0 {
		return ErrInvalidRefreshInterval
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return ErrInvalidLogLevel
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			DataDir:    defaultDataDir(),
			IDELogRoot: defaultIDELogRoot(),
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			ShutdownTimeout: 10 * time.Second,
		},
		Fetch: FetchConfig{
			Concurrency:  4,
			Timeout:      30 * time.Second,
			CacheTTL:     30 * time.Second,
			CacheMaxCost: 1_000_000,
		},
		Buckets: BucketsConfig{
			Timezone: "Local",
		},
		Watch: WatchConfig{
			Debounce:        250 * time.Millisecond,
			RefreshInterval: time.Minute,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
