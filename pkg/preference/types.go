// Package preference provides small persistent key-value settings, such
// as the cost chart's legend selection, behind a storage-agnostic Store.
//
// Example usage:
//
//	store, err := preference.NewBoltStore(preference.Config{
//	    DBPath: "~/.config/cost-monitor/preferences.db",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	var sel chart.LegendSelection
//	found, err := preference.GetJSON(store, chart.LegendKey, &sel)
package preference

import (
	"time"
)

// Store persists opaque values by key.
type Store interface {
	// Get returns the value stored under key.
	//
	// Returns found=false with a nil error when the key is absent.
	Get(key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases resources held by the store.
	Close() error
}

// Config holds the configuration for the bbolt-backed store.
type Config struct {
	// DBPath is the database file path. "~" expands to the home directory.
	DBPath string

	// Timeout bounds how long opening waits for the file lock.
	// Default: 1 second.
	Timeout time.Duration
}
