package preference

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/logger"
	bolt "go.etcd.io/bbolt"
)

var bucketPreferences = []byte("preferences") // Key -> JSON value

// boltStore implements Store using BoltDB.
type boltStore struct {
	db     *bolt.DB
	logger logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBoltStore opens (creating if needed) a BoltDB-backed store.
//
// Returns:
//   - Configured Store
//   - Error if the database cannot be opened or initialized
func NewBoltStore(cfg Config, log logger.Logger) (Store, error) {
	if cfg.DBPath == "" {
		return nil, ErrInvalidDBPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	dbPath := expandHome(cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketPreferences)
		return createErr
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error",
				"error", closeErr)
		}
		return nil, fmt.Errorf("failed to create preferences bucket: %w", err)
	}

	log.Info("preference store initialized", "db_path", dbPath)

	return &boltStore{
		db:     db,
		logger: log,
	}, nil
}

// Get implements Store.Get.
func (s *boltStore) Get(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPreferences).Get([]byte(key))
		if data == nil {
			return nil
		}
		// Bolt memory is only valid inside the transaction.
		value = append([]byte{}, data...)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}

	return value, value != nil, nil
}

// Set implements Store.Set.
func (s *boltStore) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if putErr := tx.Bucket(bucketPreferences).Put([]byte(key), value); putErr != nil {
			return fmt.Errorf("failed to store preference %s: %w", key, putErr)
		}
		return nil
	})
}

// Delete implements Store.Delete.
func (s *boltStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPreferences).Delete([]byte(key))
	})
}

// Close implements Store.Close.
func (s *boltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.logger.Debug("preference store closed")
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
