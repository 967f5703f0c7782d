package preference

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// GetJSON decodes the JSON value stored under key into v.
//
// Returns false with a nil error when the key is absent.
func GetJSON(s Store, key string, v interface{}) (bool, error) {
	data, found, err := s.Get(key)
	if err != nil || !found {
		return false, err
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal preference %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key as JSON.
func SetJSON(s Store, key string, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal preference %s: %w", key, err)
	}
	return s.Set(key, data)
}
