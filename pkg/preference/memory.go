package preference

import (
	"sync"
)

// memoryStore implements Store using an in-memory map.
type memoryStore struct {
	values map[string][]byte
	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore creates an in-memory store.
// Useful for testing or when persistence is not needed.
func NewMemoryStore() Store {
	return &memoryStore{
		values: make(map[string][]byte),
	}
}

// Get implements Store.Get.
func (s *memoryStore) Get(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}

	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, value...), true, nil
}

// Set implements Store.Set.
func (s *memoryStore) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.values[key] = append([]byte{}, value...)
	return nil
}

// Delete implements Store.Delete.
func (s *memoryStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	delete(s.values, key)
	return nil
}

// Close implements Store.Close.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
