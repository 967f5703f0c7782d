package config

import "errors"

// Common errors returned by the config package.
var (
	ErrNoDataDir              = errors.New("no data directory specified")
	ErrInvalidAddr            = errors.New("invalid server address: must be host:port")
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout: must be > 0")
	ErrInvalidConcurrency     = errors.New("invalid fetch concurrency: must be > 0")
	ErrInvalidTimeout         = errors.New("invalid fetch timeout: must be >= 0")
	ErrInvalidBaseURL         = errors.New("invalid base URL: must be absolute")
	ErrInvalidCacheTTL        = errors.New("invalid cache ttl: must be > 0")
	ErrInvalidCacheSize       = errors.New("invalid cache size: must be > 0")
	ErrInvalidTimezone        = errors.New("invalid timezone")
	ErrInvalidDebounce        = errors.New("invalid watch debounce: must be > 0")
	ErrInvalidRefreshInterval = errors.New("invalid refresh interval: must be > 0")
	ErrInvalidLogLevel        = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat       = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when an explicit config file is missing.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
