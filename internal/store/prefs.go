package store

import (
	"encoding/json"
	"strconv"
)

// Prefs is the durable scalar key-value contract. Values are stored as
// text; typed getters return the supplied default when the key is absent
// or the stored text does not parse.

func (s *Store) getRaw(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *Store) setRaw(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetBool returns the stored boolean or def.
func (s *Store) GetBool(key string, def bool) bool {
	raw, ok := s.getRaw(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// SetBool stores a boolean.
func (s *Store) SetBool(key string, value bool) error {
	return s.setRaw(key, strconv.FormatBool(value))
}

// GetInt returns the stored int or def.
func (s *Store) GetInt(key string, def int) int {
	raw, ok := s.getRaw(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// SetInt stores an int.
func (s *Store) SetInt(key string, value int) error {
	return s.setRaw(key, strconv.Itoa(value))
}

// GetInt64 returns the stored int64 or def.
func (s *Store) GetInt64(key string, def int64) int64 {
	raw, ok := s.getRaw(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// SetInt64 stores an int64.
func (s *Store) SetInt64(key string, value int64) error {
	return s.setRaw(key, strconv.FormatInt(value, 10))
}

// GetIntSlice returns the stored integer array or nil. The value is a JSON
// array in text form; malformed text yields nil rather than an error, so a
// corrupt entry degrades to "no saved order" at restore time.
func (s *Store) GetIntSlice(key string) []int {
	raw, ok := s.getRaw(key)
	if !ok {
		return nil
	}
	var v []int
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return v
}

// SetIntSlice stores an integer array as JSON array text.
func (s *Store) SetIntSlice(key string, value []int) error {
	if value == nil {
		value = []int{}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.setRaw(key, string(raw))
}
